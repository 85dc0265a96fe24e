package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/MorseWayne/shoe_catalog/internal/catalog"
	"github.com/MorseWayne/shoe_catalog/internal/domain"
	"github.com/MorseWayne/shoe_catalog/internal/mq"
	"github.com/MorseWayne/shoe_catalog/internal/repo"
)

// 联系服务错误
var (
	ErrProductNotFound = errors.New("product not found")
	ErrInvalidCode     = errors.New("product code is required")
)

// ContactService 生成商品咨询链接并发布点击事件
type ContactService interface {
	Contact(ctx context.Context, code, requestID string) (*domain.ContactEvent, error)
}

type contactService struct {
	products  repo.ProductRepository
	links     *catalog.LinkBuilder
	publisher mq.Publisher
	logger    *zap.Logger
	now       func() time.Time
	inflight  sync.WaitGroup
}

// NewContactService 创建联系服务
func NewContactService(products repo.ProductRepository, links *catalog.LinkBuilder, publisher mq.Publisher, logger *zap.Logger) ContactService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if publisher == nil {
		publisher = mq.NewNullPublisher(logger)
	}
	return &contactService{
		products:  products,
		links:     links,
		publisher: publisher,
		logger:    logger,
		now:       time.Now,
	}
}

// Contact 查询商品并生成 WhatsApp 深链接。
// 事件在后台发布，失败只记录日志，不影响链接返回。
func (s *contactService) Contact(ctx context.Context, code, requestID string) (*domain.ContactEvent, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, ErrInvalidCode
	}

	product, err := s.products.GetByCode(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("get product %s: %w", code, err)
	}
	if product == nil {
		return nil, ErrProductNotFound
	}

	event := &domain.ContactEvent{
		EventID:     uuid.NewString(),
		ProductCode: product.Code,
		ProductName: product.Name,
		Link:        s.links.ContactLink(product.Name),
		RequestID:   requestID,
		OccurredAt:  s.now().Unix(),
	}

	s.inflight.Add(1)
	go s.publish(context.WithoutCancel(ctx), event)

	return event, nil
}

func (s *contactService) publish(ctx context.Context, event *domain.ContactEvent) {
	defer s.inflight.Done()

	if err := s.publisher.PublishContact(ctx, event); err != nil {
		s.logger.Warn("publish contact event failed",
			zap.String("event_id", event.EventID),
			zap.String("product_code", event.ProductCode),
			zap.String("request_id", event.RequestID),
			zap.Error(err),
		)
	}
}
