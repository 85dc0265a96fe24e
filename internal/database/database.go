// Package database 提供数据库连接与迁移功能，支持 MySQL 和 SQLite。
package database

import (
	"database/sql"
	"errors"
	"fmt"

	// 注册 database/sql 驱动
	_ "github.com/go-sql-driver/mysql"
	_ "modernc.org/sqlite"
	"go.uber.org/zap"

	"github.com/golang-migrate/migrate/v4"
	migratedb "github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/mysql"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	_ "github.com/golang-migrate/migrate/v4/source/file"

	"github.com/MorseWayne/shoe_catalog/internal/config"
)

// 支持的驱动
const (
	DriverMySQL  = "mysql"
	DriverSQLite = "sqlite"
)

// DB 封装数据库连接
type DB struct {
	*sql.DB
	logger *zap.Logger
	driver string
	dsn    string
}

// New 根据配置创建数据库连接
func New(cfg *config.Config, logger *zap.Logger) (*DB, error) {
	db, err := Open(cfg.Database.Driver, DSN(cfg.Database), logger)
	if err != nil {
		return nil, err
	}

	if cfg.Database.Driver == DriverMySQL {
		db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
		db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	}

	logger.Info("database connected",
		zap.String("driver", cfg.Database.Driver),
		zap.String("host", cfg.Database.Host),
		zap.String("database", cfg.Database.DBName),
	)
	return db, nil
}

// DSN 生成驱动对应的连接串
func DSN(c config.DatabaseConfig) string {
	if c.Driver == DriverSQLite {
		return c.Path
	}
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=true&loc=Local",
		c.User, c.Password, c.Host, c.Port, c.DBName)
}

// Open 打开并校验连接
func Open(driver, dsn string, logger *zap.Logger) (*DB, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if driver != DriverMySQL && driver != DriverSQLite {
		return nil, fmt.Errorf("unsupported driver %q", driver)
	}

	sqlDB, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// SQLite 单写者，内存库的每个连接互相独立
	if driver == DriverSQLite {
		sqlDB.SetMaxOpenConns(1)
	}

	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &DB{DB: sqlDB, logger: logger, driver: driver, dsn: dsn}, nil
}

// Driver 返回驱动名
func (db *DB) Driver() string {
	return db.driver
}

// newMigrator 创建 migrate 实例。
// MySQL 使用独立连接，避免迁移出错时影响主连接；SQLite 复用主连接（内存库只存在于该连接上）。
func (db *DB) newMigrator(migrationsDir string) (*migrate.Migrate, func(), error) {
	var (
		driver  migratedb.Driver
		cleanup = func() {}
		err     error
	)

	switch db.driver {
	case DriverMySQL:
		migrateSQLDB, openErr := sql.Open(DriverMySQL, db.dsn)
		if openErr != nil {
			return nil, nil, fmt.Errorf("open database for migration: %w", openErr)
		}
		cleanup = func() { _ = migrateSQLDB.Close() }
		driver, err = mysql.WithInstance(migrateSQLDB, &mysql.Config{})
	case DriverSQLite:
		driver, err = sqlite.WithInstance(db.DB, &sqlite.Config{})
	}
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("create %s migration driver: %w", db.driver, err)
	}

	m, err := migrate.NewWithDatabaseInstance(fmt.Sprintf("file://%s", migrationsDir), db.driver, driver)
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("create migrate instance: %w", err)
	}

	// SQLite 的 m.Close 会关闭共享的主连接，因此只关闭源
	if db.driver == DriverSQLite {
		return m, func() {}, nil
	}
	return m, func() { _, _ = m.Close(); cleanup() }, nil
}

// RunMigrations 执行所有待执行的迁移
func (db *DB) RunMigrations(migrationsDir string) error {
	m, done, err := db.newMigrator(migrationsDir)
	if err != nil {
		return err
	}
	defer done()

	currentVersion, dirty, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return fmt.Errorf("get current version: %w", err)
	}
	if dirty {
		return fmt.Errorf("database is in dirty state at version %d, please check and fix manually", currentVersion)
	}

	db.logger.Info("current migration version", zap.Uint("version", currentVersion))

	if err := m.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			db.logger.Info("no new migrations to apply")
			return nil
		}
		return fmt.Errorf("run migrations: %w", err)
	}

	newVersion, _, err := m.Version()
	if err != nil {
		return fmt.Errorf("get new version: %w", err)
	}

	db.logger.Info("migrations completed successfully",
		zap.Uint("from_version", currentVersion),
		zap.Uint("to_version", newVersion),
	)
	return nil
}

// MigrateDown 回滚指定步数
func (db *DB) MigrateDown(migrationsDir string, steps int) error {
	m, done, err := db.newMigrator(migrationsDir)
	if err != nil {
		return err
	}
	defer done()

	currentVersion, dirty, err := m.Version()
	if err != nil {
		return fmt.Errorf("get current version: %w", err)
	}
	if dirty {
		return fmt.Errorf("database is in dirty state at version %d", currentVersion)
	}

	db.logger.Info("starting migration rollback",
		zap.Uint("current_version", currentVersion),
		zap.Int("steps", steps),
	)

	if err := m.Steps(-steps); err != nil {
		return fmt.Errorf("migrate down: %w", err)
	}

	newVersion, _, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return fmt.Errorf("get new version: %w", err)
	}

	db.logger.Info("migration rollback completed",
		zap.Uint("from_version", currentVersion),
		zap.Uint("to_version", newVersion),
	)
	return nil
}

// MigrateToVersion 迁移到指定版本
func (db *DB) MigrateToVersion(migrationsDir string, version uint) error {
	m, done, err := db.newMigrator(migrationsDir)
	if err != nil {
		return err
	}
	defer done()

	if err := m.Migrate(version); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			db.logger.Info("already at target version", zap.Uint("version", version))
			return nil
		}
		return fmt.Errorf("migrate to version %d: %w", version, err)
	}

	db.logger.Info("migration to version completed", zap.Uint("to_version", version))
	return nil
}

// ForceMigrationVersion 强制设置迁移版本，仅用于修复脏状态
func (db *DB) ForceMigrationVersion(migrationsDir string, version int) error {
	m, done, err := db.newMigrator(migrationsDir)
	if err != nil {
		return err
	}
	defer done()

	db.logger.Warn("forcing migration version", zap.Int("version", version))

	if err := m.Force(version); err != nil {
		return fmt.Errorf("force migration version: %w", err)
	}
	return nil
}
