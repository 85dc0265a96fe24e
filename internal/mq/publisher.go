// Package mq 提供目录事件的 RabbitMQ 发布者
package mq

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/MorseWayne/shoe_catalog/internal/domain"
)

// ErrPublisherClosed 发布者已关闭
var ErrPublisherClosed = errors.New("publisher is closed")

// Publisher 事件发布接口
type Publisher interface {
	PublishContact(ctx context.Context, event *domain.ContactEvent) error
	Close() error
}

// Config 发布者配置
type Config struct {
	URL            string
	Exchange       string
	RoutingKey     string
	ConfirmTimeout time.Duration
	PublishTimeout time.Duration
}

// channel amqp.Channel 中发布者用到的部分
type channel interface {
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error
	Confirm(noWait bool) error
	NotifyPublish(confirm chan amqp.Confirmation) chan amqp.Confirmation
	GetNextPublishSeqNo() uint64
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	IsClosed() bool
	Close() error
}

// dialer 建立连接并打开通道
type dialer func(url string) (channel, func() error, error)

func dialAMQP(url string) (channel, func() error, error) {
	conn, err := amqp.DialConfig(url, amqp.Config{
		Heartbeat: 10 * time.Second,
		Locale:    "en_US",
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, nil, fmt.Errorf("failed to open channel: %w", err)
	}
	return ch, conn.Close, nil
}

// AMQPPublisher 基于单通道 + 发布确认的发布者，通道断开后在下一次发布时重连
type AMQPPublisher struct {
	cfg    Config
	logger *zap.Logger
	dial   dialer

	mu        sync.Mutex
	ch        channel
	confirms  chan amqp.Confirmation
	closeConn func() error
	closed    bool
}

// NewAMQPPublisher 创建发布者并立即建立连接
func NewAMQPPublisher(cfg Config, logger *zap.Logger) (*AMQPPublisher, error) {
	return newAMQPPublisher(cfg, logger, dialAMQP)
}

func newAMQPPublisher(cfg Config, logger *zap.Logger, dial dialer) (*AMQPPublisher, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ConfirmTimeout <= 0 {
		cfg.ConfirmTimeout = 5 * time.Second
	}
	if cfg.PublishTimeout <= 0 {
		cfg.PublishTimeout = 5 * time.Second
	}

	p := &AMQPPublisher{cfg: cfg, logger: logger, dial: dial}

	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.connect(); err != nil {
		return nil, err
	}
	return p, nil
}

// confirmBuffer 确认通道缓冲，放弃等待后迟到的确认在下次发布前被丢弃
const confirmBuffer = 16

// connect 建立连接、声明交换机并开启确认模式，调用方需持有锁
func (p *AMQPPublisher) connect() error {
	ch, closeConn, err := p.dial(p.cfg.URL)
	if err != nil {
		return err
	}

	if err := ch.ExchangeDeclare(p.cfg.Exchange, amqp.ExchangeTopic, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = closeConn()
		return fmt.Errorf("failed to declare exchange %s: %w", p.cfg.Exchange, err)
	}

	if err := ch.Confirm(false); err != nil {
		_ = ch.Close()
		_ = closeConn()
		return fmt.Errorf("failed to set confirm mode: %w", err)
	}

	p.ch = ch
	p.confirms = ch.NotifyPublish(make(chan amqp.Confirmation, confirmBuffer))
	p.closeConn = closeConn

	p.logger.Info("rabbitmq publisher connected", zap.String("exchange", p.cfg.Exchange))
	return nil
}

// PublishContact 发布联系事件并等待 broker 确认
func (p *AMQPPublisher) PublishContact(ctx context.Context, event *domain.ContactEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return ErrPublisherClosed
	}
	if p.ch == nil || p.ch.IsClosed() {
		p.logger.Warn("rabbitmq channel closed, reconnecting")
		p.reset()
		if err := p.connect(); err != nil {
			return err
		}
	}

	publishCtx, cancel := context.WithTimeout(ctx, p.cfg.PublishTimeout)
	defer cancel()

	seq := p.ch.GetNextPublishSeqNo()
	err = p.ch.PublishWithContext(publishCtx, p.cfg.Exchange, p.cfg.RoutingKey, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    event.EventID,
		Timestamp:    time.Unix(event.OccurredAt, 0),
		Type:         "catalog.contact",
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("failed to publish message: %w", err)
	}

	if err := p.awaitConfirm(ctx, seq); err != nil {
		if !errors.Is(err, ErrNacked) {
			// 确认可能稍后才到，丢弃该通道，下次发布时重连
			p.reset()
		}
		return err
	}
	return nil
}

// 发布确认错误
var (
	ErrNacked         = errors.New("message was nacked by broker")
	ErrConfirmTimeout = errors.New("publish confirmation timeout")
)

// awaitConfirm 等待序号为 seq 的确认，序号更小的确认属于此前放弃等待的消息，直接跳过
func (p *AMQPPublisher) awaitConfirm(ctx context.Context, seq uint64) error {
	timer := time.NewTimer(p.cfg.ConfirmTimeout)
	defer timer.Stop()

	for {
		select {
		case confirmation, ok := <-p.confirms:
			if !ok {
				return errors.New("confirmation channel closed")
			}
			if confirmation.DeliveryTag != seq {
				p.logger.Debug("skip confirmation of an earlier message",
					zap.Uint64("delivery_tag", confirmation.DeliveryTag),
					zap.Uint64("expected", seq),
				)
				continue
			}
			if !confirmation.Ack {
				return ErrNacked
			}
			return nil
		case <-timer.C:
			return ErrConfirmTimeout
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// reset 关闭当前通道与连接，调用方需持有锁
func (p *AMQPPublisher) reset() {
	if p.ch != nil {
		_ = p.ch.Close()
	}
	if p.closeConn != nil {
		_ = p.closeConn()
	}
	p.ch = nil
	p.confirms = nil
	p.closeConn = nil
}

// Close 关闭通道和连接
func (p *AMQPPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil
	}
	p.closed = true

	var errs []error
	if p.ch != nil {
		errs = append(errs, p.ch.Close())
	}
	if p.closeConn != nil {
		errs = append(errs, p.closeConn())
	}
	return errors.Join(errs...)
}

// NullPublisher 未启用消息队列时使用，只记录调试日志
type NullPublisher struct {
	logger *zap.Logger
}

// NewNullPublisher 创建空发布者
func NewNullPublisher(logger *zap.Logger) *NullPublisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NullPublisher{logger: logger}
}

func (n *NullPublisher) PublishContact(ctx context.Context, event *domain.ContactEvent) error {
	n.logger.Debug("contact event dropped (mq disabled)", zap.String("product_code", event.ProductCode))
	return nil
}

func (n *NullPublisher) Close() error {
	return nil
}
