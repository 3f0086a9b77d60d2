package nats

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/kirillkom/tradedoc-reconciler/internal/core/domain"
	"github.com/kirillkom/tradedoc-reconciler/internal/core/ports"
	"github.com/kirillkom/tradedoc-reconciler/internal/infrastructure/resilience"
)

var _ ports.ValidationQueue = (*Queue)(nil)

// Queue carries validation requests to workers and completed runs back out.
type Queue struct {
	conn     *nats.Conn
	subjects Subjects
	executor *resilience.Executor
}

type Subjects struct {
	Requests   string
	Results    string
	QueueGroup string
}

func DefaultSubjects() Subjects {
	return Subjects{
		Requests:   "shipments.validate",
		Results:    "shipments.validated",
		QueueGroup: "validators",
	}
}

type Options struct {
	ConnectTimeout       time.Duration
	ReconnectWait        time.Duration
	MaxReconnects        int
	RetryOnFailedConnect *bool
	ResilienceExecutor   *resilience.Executor
}

func New(url string, subjects Subjects) (*Queue, error) {
	return NewWithOptions(url, subjects, Options{})
}

func NewWithOptions(url string, subjects Subjects, options Options) (*Queue, error) {
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

	conn, err := nats.Connect(
		url,
		nats.Name("tradedoc-reconciler"),
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
	return newQueue(conn, subjects, options.ResilienceExecutor), nil
}

func newQueue(conn *nats.Conn, subjects Subjects, executor *resilience.Executor) *Queue {
	def := DefaultSubjects()
	if subjects.Requests == "" {
		subjects.Requests = def.Requests
	}
	if subjects.Results == "" {
		subjects.Results = def.Results
	}
	if subjects.QueueGroup == "" {
		subjects.QueueGroup = def.QueueGroup
	}
	return &Queue{conn: conn, subjects: subjects, executor: executor}
}

func (q *Queue) Close() {
	if q.conn != nil {
		q.conn.Close()
	}
}

func (q *Queue) Subjects() Subjects {
	return q.subjects
}

func (q *Queue) PublishValidationRequest(ctx context.Context, payload []byte) error {
	return q.publish(ctx, q.subjects.Requests, payload)
}

func (q *Queue) PublishValidationResult(ctx context.Context, run *domain.ValidationRun) error {
	payload, err := json.Marshal(run)
	if err != nil {
		return fmt.Errorf("marshal validation run: %w", err)
	}
	return q.publish(ctx, q.subjects.Results, payload)
}

func (q *Queue) publish(ctx context.Context, subject string, payload []byte) error {
	call := func(_ context.Context) error {
		if err := q.conn.Publish(subject, payload); err != nil {
			return fmt.Errorf("nats publish %s: %w", subject, err)
		}
		return nil
	}

	var err error
	if q.executor != nil {
		err = q.executor.Execute(ctx, resilience.OpPublish, call, classifyNATSError)
	} else {
		err = call(ctx)
	}
	if err != nil {
		return wrapTemporaryIfNeeded(err)
	}
	return nil
}

// SubscribeValidationRequests blocks until ctx is done, then drains the
// subscription. Messages carrying a reply subject get the handler's error
// text back, so request/reply callers learn about rejected payloads.
func (q *Queue) SubscribeValidationRequests(ctx context.Context, handler func(context.Context, []byte) error) error {
	sub, err := q.conn.QueueSubscribe(q.subjects.Requests, q.subjects.QueueGroup, func(msg *nats.Msg) {
		handleRequest(ctx, msg, handler, msg.Respond)
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
	if err := q.conn.FlushTimeout(5 * time.Second); err != nil {
		return fmt.Errorf("nats flush after drain: %w", err)
	}
	return nil
}

// handleRequest runs handler detached from ctx cancellation: messages still
// buffered when the subscription drains must be processed and answered.
func handleRequest(ctx context.Context, msg *nats.Msg, handler func(context.Context, []byte) error, respond func([]byte) error) {
	handlerCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	defer cancel()
	if err := handler(handlerCtx, msg.Data); err != nil {
		slog.Error("validation_request_failed", "subject", msg.Subject, "bytes", len(msg.Data), "error", err)
		if msg.Reply != "" {
			body, _ := json.Marshal(map[string]string{"error": err.Error()})
			_ = respond(body)
		}
		return
	}
	if msg.Reply != "" {
		_ = respond([]byte(`{"status":"accepted"}`))
	}
}
