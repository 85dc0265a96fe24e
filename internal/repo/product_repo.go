// Package repo 实现数据访问层，负责与数据库的交互。
package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/MorseWayne/shoe_catalog/internal/domain"
	"github.com/MorseWayne/shoe_catalog/internal/query"
)

// ProductRepository 定义商品数据访问接口
type ProductRepository interface {
	// ListAll 读取全部商品，用于生成下拉选项
	ListAll(ctx context.Context) ([]*domain.Product, error)
	// FindPage 按过滤条件分页读取商品
	FindPage(ctx context.Context, filter query.Predicate, offset, limit int) ([]*domain.Product, error)
	// GetByCode 根据编码获取商品，不存在时返回 nil, nil
	GetByCode(ctx context.Context, code string) (*domain.Product, error)
}

// productColumns 谓词字段到列名的白名单
var productColumns = query.Columns{
	domain.FieldCode:  "code",
	domain.FieldName:  "name",
	domain.FieldSizes: "sizes",
	domain.FieldBrand: "brand",
	domain.FieldPrice: "price",
}

const selectProduct = `SELECT code, name, sizes, brand, price FROM products`

// productRepo 实现ProductRepository接口
type productRepo struct {
	db *sql.DB
}

// NewProductRepository 创建商品仓储实例
func NewProductRepository(db *sql.DB) ProductRepository {
	return &productRepo{db: db}
}

// ListAll 读取全部商品
func (r *productRepo) ListAll(ctx context.Context) ([]*domain.Product, error) {
	rows, err := r.db.QueryContext(ctx, selectProduct+` ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	defer rows.Close()

	return scanProducts(rows)
}

// FindPage 按过滤条件分页读取商品
func (r *productRepo) FindPage(ctx context.Context, filter query.Predicate, offset, limit int) ([]*domain.Product, error) {
	where, args, err := query.ToSQL(filter, productColumns)
	if err != nil {
		return nil, fmt.Errorf("failed to build product filter: %w", err)
	}

	q := selectProduct + ` WHERE ` + where + ` ORDER BY id LIMIT ? OFFSET ?`
	args = append(args, limit, offset)

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to find products: %w", err)
	}
	defer rows.Close()

	return scanProducts(rows)
}

// GetByCode 根据编码获取商品
func (r *productRepo) GetByCode(ctx context.Context, code string) (*domain.Product, error) {
	row := r.db.QueryRowContext(ctx, selectProduct+` WHERE code = ?`, code)

	product, err := scanProduct(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get product by code: %w", err)
	}
	return product, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanProduct(s scanner) (*domain.Product, error) {
	var (
		p     domain.Product
		price sql.NullFloat64
	)
	if err := s.Scan(&p.Code, &p.Name, &p.Sizes, &p.Brand, &price); err != nil {
		return nil, err
	}
	if price.Valid {
		v := price.Float64
		p.Price = &v
	}
	return &p, nil
}

func scanProducts(rows *sql.Rows) ([]*domain.Product, error) {
	products := make([]*domain.Product, 0)
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate products: %w", err)
	}
	return products, nil
}
