package mq

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/rabbitmq/amqp091-go"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"taskboard/pkg/circuitbreaker"
	"taskboard/pkg/config"
	"taskboard/pkg/metrics"
	"taskboard/pkg/otel"
	"taskboard/pkg/trace"
)

const publishTimeout = 3 * time.Second

type Publisher struct {
	conn     *amqp091.Connection
	channel  *amqp091.Channel
	exchange string
	breaker  *circuitbreaker.Breaker
	logger   *zap.Logger

	mu sync.Mutex
}

func NewPublisher(cfg config.MQConfig, logger *zap.Logger) (*Publisher, error) {
	exchange := exchangeOrDefault(cfg.Exchange)
	conn, ch, err := openChannel(cfg.URL, exchange)
	if err != nil {
		return nil, err
	}

	logger.Info("MQ publisher initialized", zap.String("exchange", exchange))

	return &Publisher{
		conn:     conn,
		channel:  ch,
		exchange: exchange,
		breaker:  circuitbreaker.New(circuitbreaker.DefaultConfig()),
		logger:   logger,
	}, nil
}

func (p *Publisher) Close() {
	if p.channel != nil {
		_ = p.channel.Close()
	}
	if p.conn != nil {
		_ = p.conn.Close()
	}
}

// IsConnected checks if the publisher connection is still alive
func (p *Publisher) IsConnected() bool {
	if p.conn == nil || p.channel == nil {
		return false
	}
	return !p.conn.IsClosed()
}

// Publish 以 JSON 发布事件，trace context 与 trace id 写入消息头
func (p *Publisher) Publish(ctx context.Context, routingKey string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode %s payload: %w", routingKey, err)
	}

	ctx, span := otel.MQPublishSpan(ctx, routingKey, p.exchange)
	defer span.End()

	headers := amqp091.Table{}
	otel.InjectMQHeaders(ctx, headers)
	if traceID := trace.FromContext(ctx); traceID != "" {
		headers[trace.HeaderName] = traceID
	}

	err = p.breaker.Execute(func() error {
		pubCtx, cancel := context.WithTimeout(ctx, publishTimeout)
		defer cancel()

		p.mu.Lock()
		defer p.mu.Unlock()
		return p.channel.PublishWithContext(pubCtx,
			p.exchange,
			routingKey,
			false,
			false,
			amqp091.Publishing{
				ContentType:  "application/json",
				Body:         body,
				Headers:      headers,
				Timestamp:    time.Now().UTC(),
				DeliveryMode: amqp091.Persistent,
			},
		)
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		metrics.IncrementEventPublish(routingKey, "error")
		return fmt.Errorf("failed to publish %s: %w", routingKey, err)
	}

	span.SetStatus(codes.Ok, "")
	metrics.IncrementEventPublish(routingKey, "ok")
	p.logger.Debug("Event published",
		zap.String("exchange", p.exchange),
		zap.String("routing_key", routingKey),
		zap.Int("size", len(body)),
	)
	return nil
}
