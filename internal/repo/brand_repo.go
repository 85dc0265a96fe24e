package repo

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/MorseWayne/shoe_catalog/internal/domain"
)

// BrandRepository 定义品牌数据访问接口
type BrandRepository interface {
	ListAll(ctx context.Context) ([]*domain.Brand, error)
}

type brandRepo struct {
	db *sql.DB
}

// NewBrandRepository 创建品牌仓储实例
func NewBrandRepository(db *sql.DB) BrandRepository {
	return &brandRepo{db: db}
}

// ListAll 读取全部品牌（包括未配置优先级的品牌，由上层过滤）
func (r *brandRepo) ListAll(ctx context.Context) ([]*domain.Brand, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT name, priority FROM brands ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list brands: %w", err)
	}
	defer rows.Close()

	brands := make([]*domain.Brand, 0)
	for rows.Next() {
		var (
			b        domain.Brand
			priority sql.NullInt64
		)
		if err := rows.Scan(&b.Name, &priority); err != nil {
			return nil, fmt.Errorf("failed to scan brand: %w", err)
		}
		if priority.Valid {
			v := int(priority.Int64)
			b.Priority = &v
		}
		brands = append(brands, &b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate brands: %w", err)
	}
	return brands, nil
}
