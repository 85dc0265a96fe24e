// Package cms 通过托管 CMS 的数据查询接口读取商品和品牌。
package cms

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/ratelimit"
	"go.uber.org/zap"
	"resty.dev/v3"

	"github.com/MorseWayne/shoe_catalog/internal/config"
	"github.com/MorseWayne/shoe_catalog/internal/domain"
	"github.com/MorseWayne/shoe_catalog/internal/query"
)

// ErrUpstream CMS 返回非成功状态
var ErrUpstream = errors.New("cms upstream error")

// maxPageLimit 单次查询的最大条数
const maxPageLimit = 1000

// 集合中的字段名
var productFields = query.Columns{
	domain.FieldCode:  "codigo",
	domain.FieldName:  "nombre",
	domain.FieldSizes: "tallas",
	domain.FieldBrand: "marca",
	domain.FieldPrice: "price",
}

type queryRequest struct {
	DataCollectionID string    `json:"dataCollectionId"`
	Query            queryBody `json:"query"`
}

type queryBody struct {
	Filter map[string]any `json:"filter,omitempty"`
	Paging paging         `json:"paging"`
}

type paging struct {
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}

type queryResponse[T any] struct {
	DataItems []struct {
		ID   string `json:"id"`
		Data T      `json:"data"`
	} `json:"dataItems"`
	PagingMetadata struct {
		Count   int  `json:"count"`
		HasNext bool `json:"hasNext"`
	} `json:"pagingMetadata"`
}

type productData struct {
	Code  string   `json:"codigo"`
	Name  string   `json:"nombre"`
	Sizes string   `json:"tallas"`
	Brand string   `json:"marca"`
	Price *float64 `json:"price"`
}

func (d productData) toDomain() *domain.Product {
	return &domain.Product{
		Code:  d.Code,
		Name:  d.Name,
		Sizes: d.Sizes,
		Brand: d.Brand,
		Price: d.Price,
	}
}

type brandData struct {
	Name     string   `json:"marca"`
	Priority *float64 `json:"prioridad"`
}

func (d brandData) toDomain() *domain.Brand {
	b := &domain.Brand{Name: d.Name}
	if d.Priority != nil {
		p := int(*d.Priority)
		b.Priority = &p
	}
	return b
}

// Client CMS 数据接口客户端
type Client struct {
	http   *resty.Client
	rl     ratelimit.Limiter
	cfg    config.CMSConfig
	logger *zap.Logger
}

// NewClient 创建 CMS 客户端
func NewClient(cfg config.CMSConfig, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	client := resty.New().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetTimeout(timeout).
		SetHeader("Accept", "application/json").
		SetHeader("Content-Type", "application/json")
	if cfg.APIKey != "" {
		client.SetHeader("Authorization", cfg.APIKey)
	}
	if cfg.SiteID != "" {
		client.SetHeader("wix-site-id", cfg.SiteID)
	}

	rl := ratelimit.NewUnlimited()
	if cfg.RequestsPerSecond > 0 {
		rl = ratelimit.New(cfg.RequestsPerSecond)
	}

	return &Client{http: client, rl: rl, cfg: cfg, logger: logger}
}

// Close 释放底层连接
func (c *Client) Close() error {
	return c.http.Close()
}

// queryItems 对集合执行一次查询
func queryItems[T any](ctx context.Context, c *Client, collection string, filter map[string]any, offset, limit int) (*queryResponse[T], error) {
	c.rl.Take()

	var out queryResponse[T]
	res, err := c.http.R().
		SetContext(ctx).
		SetBody(queryRequest{
			DataCollectionID: collection,
			Query: queryBody{
				Filter: filter,
				Paging: paging{Limit: limit, Offset: offset},
			},
		}).
		SetResult(&out).
		Post("/items/query")
	if err != nil {
		return nil, fmt.Errorf("query collection %s: %w", collection, err)
	}
	if res.IsError() {
		return nil, fmt.Errorf("%w: query collection %s: %d %s", ErrUpstream, collection, res.StatusCode(), res.Status())
	}

	c.logger.Debug("cms query",
		zap.String("collection", collection),
		zap.Int("offset", offset),
		zap.Int("limit", limit),
		zap.Int("returned", len(out.DataItems)),
	)
	return &out, nil
}

// queryAll 逐页读取集合中的全部记录
func queryAll[T any](ctx context.Context, c *Client, collection string) ([]T, error) {
	var items []T
	for offset := 0; ; offset += maxPageLimit {
		page, err := queryItems[T](ctx, c, collection, nil, offset, maxPageLimit)
		if err != nil {
			return nil, err
		}
		for _, it := range page.DataItems {
			items = append(items, it.Data)
		}
		if !page.PagingMetadata.HasNext || len(page.DataItems) < maxPageLimit {
			return items, nil
		}
	}
}

// ProductSource 基于 CMS 的商品数据源
type ProductSource struct {
	client *Client
}

// NewProductSource 创建商品数据源
func NewProductSource(client *Client) *ProductSource {
	return &ProductSource{client: client}
}

// ListAll 读取全部商品
func (s *ProductSource) ListAll(ctx context.Context) ([]*domain.Product, error) {
	data, err := queryAll[productData](ctx, s.client, s.client.cfg.ProductsCollection)
	if err != nil {
		return nil, err
	}

	products := make([]*domain.Product, 0, len(data))
	for _, d := range data {
		products = append(products, d.toDomain())
	}
	return products, nil
}

// FindPage 按过滤条件分页读取商品
func (s *ProductSource) FindPage(ctx context.Context, filter query.Predicate, offset, limit int) ([]*domain.Product, error) {
	f, err := query.ToCMS(filter, productFields)
	if err != nil {
		return nil, fmt.Errorf("build cms filter: %w", err)
	}

	page, err := queryItems[productData](ctx, s.client, s.client.cfg.ProductsCollection, f, offset, limit)
	if err != nil {
		return nil, err
	}

	products := make([]*domain.Product, 0, len(page.DataItems))
	for _, it := range page.DataItems {
		products = append(products, it.Data.toDomain())
	}
	return products, nil
}

// GetByCode 根据编码获取商品，不存在时返回 nil, nil
func (s *ProductSource) GetByCode(ctx context.Context, code string) (*domain.Product, error) {
	products, err := s.FindPage(ctx, query.Eq(domain.FieldCode, code), 0, 1)
	if err != nil {
		return nil, err
	}
	if len(products) == 0 {
		return nil, nil
	}
	return products[0], nil
}

// BrandSource 基于 CMS 的品牌数据源
type BrandSource struct {
	client *Client
}

// NewBrandSource 创建品牌数据源
func NewBrandSource(client *Client) *BrandSource {
	return &BrandSource{client: client}
}

// ListAll 读取全部品牌
func (s *BrandSource) ListAll(ctx context.Context) ([]*domain.Brand, error) {
	data, err := queryAll[brandData](ctx, s.client, s.client.cfg.BrandsCollection)
	if err != nil {
		return nil, err
	}

	brands := make([]*domain.Brand, 0, len(data))
	for _, d := range data {
		brands = append(brands, d.toDomain())
	}
	return brands, nil
}
