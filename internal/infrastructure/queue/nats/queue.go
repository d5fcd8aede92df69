package nats

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/kirillkom/resume-categorizer/internal/core/domain"
	"github.com/kirillkom/resume-categorizer/internal/infrastructure/resilience"
)

const DefaultSubject = "resume.filed"

// Publisher emits a ResumeFiledEvent per filed resume.
type Publisher struct {
	conn     *nats.Conn
	subject  string
	executor *resilience.Executor
}

type Options struct {
	ConnectTimeout       time.Duration
	ReconnectWait        time.Duration
	MaxReconnects        int
	RetryOnFailedConnect *bool
	ResilienceExecutor   *resilience.Executor
	Logger               *slog.Logger
}

func NewPublisher(url, subject string, options Options) (*Publisher, error) {
	if subject == "" {
		subject = DefaultSubject
	}
	logger := options.Logger
	if logger == nil {
		logger = slog.Default()
	}
	retryOnFailedConnect := true
	if options.RetryOnFailedConnect != nil {
		retryOnFailedConnect = *options.RetryOnFailedConnect
	}

	conn, err := nats.Connect(
		url,
		nats.Name("resume-categorizer"),
		nats.Timeout(durationOr(options.ConnectTimeout, 2*time.Second)),
		nats.ReconnectWait(durationOr(options.ReconnectWait, 2*time.Second)),
		nats.MaxReconnects(intOr(options.MaxReconnects, 60)),
		nats.RetryOnFailedConnect(retryOnFailedConnect),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			logger.Warn("nats_disconnected", "error", err)
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("nats_reconnected", "url", nc.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect nats: %w", err)
	}
	return &Publisher{
		conn:     conn,
		subject:  subject,
		executor: options.ResilienceExecutor,
	}, nil
}

func (p *Publisher) Close() {
	if p.conn != nil {
		if err := p.conn.FlushTimeout(5 * time.Second); err != nil {
			slog.Warn("nats_flush_on_close_failed", "error", err)
		}
		p.conn.Close()
	}
}

func (p *Publisher) PublishResumeFiled(ctx context.Context, event domain.ResumeFiledEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode resume event: %w", err)
	}
	call := func(context.Context) error {
		if err := p.conn.Publish(p.subject, payload); err != nil {
			return fmt.Errorf("nats publish: %w", err)
		}
		return nil
	}

	if p.executor != nil {
		err = p.executor.Execute(ctx, "nats.publish", call, classifyNATSError)
	} else {
		err = call(ctx)
	}
	return wrapTemporaryIfNeeded(err)
}

// DecodeResumeFiled parses a message body produced by PublishResumeFiled.
func DecodeResumeFiled(data []byte) (domain.ResumeFiledEvent, error) {
	var event domain.ResumeFiledEvent
	if err := json.Unmarshal(data, &event); err != nil {
		return domain.ResumeFiledEvent{}, domain.WrapError(domain.ErrInvalidInput, "decode resume event", err)
	}
	return event, nil
}

func durationOr(v, fallback time.Duration) time.Duration {
	if v <= 0 {
		return fallback
	}
	return v
}

func intOr(v, fallback int) int {
	if v <= 0 {
		return fallback
	}
	return v
}
