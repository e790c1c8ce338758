package nats

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/kirillkom/docsort/internal/infrastructure/resilience"
)

const (
	defaultQueueGroup = "docsort-workers"
	drainTimeout      = 30 * time.Second
)

type Queue struct {
	conn       *nats.Conn
	subject    string
	queueGroup string
	executor   *resilience.Executor
}

type Options struct {
	ConnectTimeout       time.Duration
	ReconnectWait        time.Duration
	MaxReconnects        int
	RetryOnFailedConnect *bool
	QueueGroup           string
	ResilienceExecutor   *resilience.Executor
}

func New(url, subject string) (*Queue, error) {
	return NewWithOptions(url, subject, Options{})
}

func NewWithOptions(url, subject string, options Options) (*Queue, error) {
	if strings.TrimSpace(subject) == "" {
		return nil, errors.New("nats subject is required")
	}
	connectTimeout := options.ConnectTimeout
	if connectTimeout <= 0 {
		connectTimeout = 2 * time.Second
	}
	reconnectWait := options.ReconnectWait
	if reconnectWait <= 0 {
		reconnectWait = 2 * time.Second
	}
	maxReconnects := options.MaxReconnects
	if maxReconnects <= 0 {
		maxReconnects = 60
	}
	retryOnFailedConnect := true
	if options.RetryOnFailedConnect != nil {
		retryOnFailedConnect = *options.RetryOnFailedConnect
	}
	group := options.QueueGroup
	if group == "" {
		group = defaultQueueGroup
	}

	conn, err := nats.Connect(
		url,
		nats.Name("docsort"),
		nats.Timeout(connectTimeout),
		nats.ReconnectWait(reconnectWait),
		nats.MaxReconnects(maxReconnects),
		nats.RetryOnFailedConnect(retryOnFailedConnect),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			slog.Warn("nats_disconnected", "error", err)
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			slog.Info("nats_reconnected", "url", nc.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect nats: %w", err)
	}
	return &Queue{
		conn:       conn,
		subject:    subject,
		queueGroup: group,
		executor:   options.ResilienceExecutor,
	}, nil
}

func (q *Queue) Close() {
	if q.conn != nil {
		q.conn.Close()
	}
}

func (q *Queue) PublishDocumentIngested(ctx context.Context, documentID string) error {
	err := q.executor.Execute(ctx, "nats.publish", func(context.Context) error {
		if err := q.conn.Publish(q.subject, []byte(documentID)); err != nil {
			return fmt.Errorf("nats publish: %w", err)
		}
		return nil
	}, classifyNATSError)
	return resilience.AsTemporary("nats publish", err, classifyNATSError)
}

// SubscribeDocumentIngested blocks until ctx is done, then drains the
// subscription: messages already delivered are still handed to handler, with
// a context that is no longer cancelled. Handler errors are logged; the
// message is not redelivered.
func (q *Queue) SubscribeDocumentIngested(ctx context.Context, handler func(context.Context, string) error) error {
	sub, err := q.conn.QueueSubscribe(q.subject, q.queueGroup, func(msg *nats.Msg) {
		q.deliver(ctx, msg, handler)
	})
	if err != nil {
		return fmt.Errorf("nats subscribe: %w", err)
	}

	if err := q.conn.Flush(); err != nil {
		return fmt.Errorf("nats flush: %w", err)
	}

	<-ctx.Done()
	if err := sub.Drain(); err != nil {
		return fmt.Errorf("nats drain subscription: %w", err)
	}
	// Drain is asynchronous; the subscription turns invalid once the last
	// pending callback has returned.
	deadline := time.Now().Add(drainTimeout)
	for sub.IsValid() {
		if time.Now().After(deadline) {
			pending, _, _ := sub.Pending()
			slog.Warn("nats_drain_timeout", "subject", q.subject, "pending", pending)
			break
		}
		time.Sleep(50 * time.Millisecond)
	}
	return nil
}

func (q *Queue) deliver(ctx context.Context, msg *nats.Msg, handler func(context.Context, string) error) {
	documentID := strings.TrimSpace(string(msg.Data))
	if documentID == "" {
		slog.Warn("nats_empty_message", "subject", msg.Subject)
		return
	}
	if ctx.Err() != nil {
		ctx = context.WithoutCancel(ctx)
		slog.Info("nats_message_drained", "document_id", documentID)
	}
	if err := handler(ctx, documentID); err != nil {
		slog.Error("document_handler_failed", "document_id", documentID, "error", err)
	}
}
