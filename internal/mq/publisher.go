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
)

const (
	defaultPublishTimeout = 5 * time.Second
	defaultMaxAttempts    = 2
	defaultDialTimeout    = 3 * time.Second
	defaultRedialBackoff  = 10 * time.Second
	defaultQueueSize      = 1024
	closeFlushTimeout     = 10 * time.Second
)

var (
	// ErrPublisherClosed 发布器已关闭
	ErrPublisherClosed = errors.New("publisher is closed")
	// ErrQueueFull 待发送队列已满，事件被丢弃
	ErrQueueFull = errors.New("event queue is full")
	// ErrBrokerUnavailable 上次连接失败后的退避期内不再重连
	ErrBrokerUnavailable = errors.New("broker unavailable")
)

// channel 抽象 amqp.Channel 中用到的方法
type channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// dialFunc 建立连接并返回已声明好交换机的通道
type dialFunc func() (channel, closer, error)

// closer 关闭底层连接
type closer interface {
	Close() error
}

type outgoing struct {
	key string
	msg amqp.Publishing
}

// AMQPPublisher 通过 topic 交换机发布 JSON 事件。
// Publish 只负责入队，由后台 goroutine 串行发送；连接断开后惰性重连，
// 重连失败后在退避期内直接丢弃事件。
type AMQPPublisher struct {
	exchange string
	appID    string
	timeout  time.Duration
	attempts int
	backoff  time.Duration
	dial     dialFunc
	logger   *zap.Logger
	now      func() time.Time

	queue chan outgoing
	done  chan struct{}

	mu     sync.RWMutex
	closed bool

	// 以下字段只在发送 goroutine 中访问
	ch      channel
	conn    closer
	retryAt time.Time
}

// NewAMQPPublisher 连接 RabbitMQ 并声明持久化 topic 交换机
func NewAMQPPublisher(url, exchange, appID string, logger *zap.Logger) (*AMQPPublisher, error) {
	dial := func() (channel, closer, error) {
		conn, err := amqp.DialConfig(url, amqp.Config{
			Heartbeat: 10 * time.Second,
			Locale:    "en_US",
			Dial:      amqp.DefaultDial(defaultDialTimeout),
		})
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
		}

		ch, err := conn.Channel()
		if err != nil {
			_ = conn.Close()
			return nil, nil, fmt.Errorf("failed to open channel: %w", err)
		}

		if err := ch.ExchangeDeclare(exchange, amqp.ExchangeTopic, true, false, false, false, nil); err != nil {
			_ = ch.Close()
			_ = conn.Close()
			return nil, nil, fmt.Errorf("failed to declare exchange %s: %w", exchange, err)
		}
		return ch, conn, nil
	}

	p := newPublisher(exchange, appID, dial, logger)
	if err := p.connect(); err != nil {
		return nil, err
	}
	p.start()
	logger.Info("RabbitMQ publisher ready", zap.String("exchange", exchange))
	return p, nil
}

func newPublisher(exchange, appID string, dial dialFunc, logger *zap.Logger) *AMQPPublisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AMQPPublisher{
		exchange: exchange,
		appID:    appID,
		timeout:  defaultPublishTimeout,
		attempts: defaultMaxAttempts,
		backoff:  defaultRedialBackoff,
		dial:     dial,
		logger:   logger,
		now:      time.Now,
		queue:    make(chan outgoing, defaultQueueSize),
		done:     make(chan struct{}),
	}
}

func (p *AMQPPublisher) start() {
	go p.run()
}

func (p *AMQPPublisher) run() {
	defer close(p.done)
	for out := range p.queue {
		if err := p.send(out); err != nil {
			p.logger.Warn("事件发送失败，已丢弃",
				zap.String("exchange", p.exchange),
				zap.String("routing_key", out.key),
				zap.String("message_id", out.msg.MessageId),
				zap.Error(err))
		}
	}
	p.reset()
}

func (p *AMQPPublisher) connect() error {
	ch, conn, err := p.dial()
	if err != nil {
		return err
	}
	p.ch = ch
	p.conn = conn
	return nil
}

func (p *AMQPPublisher) reset() {
	if p.ch != nil {
		_ = p.ch.Close()
	}
	if p.conn != nil {
		_ = p.conn.Close()
	}
	p.ch, p.conn = nil, nil
}

// send 发布单条消息，通道失效时重连后再试一次
func (p *AMQPPublisher) send(out outgoing) error {
	var lastErr error
	for attempt := 1; attempt <= p.attempts; attempt++ {
		if p.ch == nil {
			if p.now().Before(p.retryAt) {
				return ErrBrokerUnavailable
			}
			if err := p.connect(); err != nil {
				p.retryAt = p.now().Add(p.backoff)
				return err
			}
		}

		ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
		err := p.ch.PublishWithContext(ctx, p.exchange, out.key, false, false, out.msg)
		cancel()
		if err == nil {
			return nil
		}

		lastErr = err
		p.logger.Warn("消息发布失败",
			zap.String("exchange", p.exchange),
			zap.String("routing_key", out.key),
			zap.Int("attempt", attempt),
			zap.Error(err))
		p.reset()
	}
	return fmt.Errorf("failed to publish %s after %d attempts: %w", out.key, p.attempts, lastErr)
}

// Publish 将事件放入发送队列，不等待 broker，队列满时返回 ErrQueueFull
func (p *AMQPPublisher) Publish(ctx context.Context, evt Event) error {
	msg, err := buildPublishing(evt, p.appID)
	if err != nil {
		return err
	}

	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrPublisherClosed
	}

	select {
	case p.queue <- outgoing{key: evt.Type, msg: msg}:
		return nil
	default:
		return ErrQueueFull
	}
}

// Close 停止接收新事件，尽量发送完已入队的事件后关闭连接
func (p *AMQPPublisher) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	close(p.queue)
	p.mu.Unlock()

	select {
	case <-p.done:
		return nil
	case <-time.After(closeFlushTimeout):
		return errors.New("timed out flushing queued events")
	}
}

func buildPublishing(evt Event, appID string) (amqp.Publishing, error) {
	body, err := json.Marshal(evt)
	if err != nil {
		return amqp.Publishing{}, fmt.Errorf("failed to marshal event: %w", err)
	}
	return amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    evt.ID,
		Timestamp:    evt.OccurredAt,
		Type:         evt.Type,
		AppId:        appID,
		Body:         body,
	}, nil
}
