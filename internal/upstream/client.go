// Package upstream talks to the clinic REST backend. Every request carries
// the caller's bearer token and is traced, timed and counted.
package upstream

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/wolfman30/clinicdesk/internal/apierror"
	"github.com/wolfman30/clinicdesk/internal/tenancy"
	"github.com/wolfman30/clinicdesk/pkg/logging"
)

var tracer = otel.Tracer("clinicdesk.internal.upstream")

const defaultTimeout = 20 * time.Second

// RequestObserver records the outcome of each backend call.
type RequestObserver interface {
	ObserveRequest(operation string, ok bool, seconds float64)
}

// Config configures the backend client.
type Config struct {
	BaseURL string
	Timeout time.Duration
}

// Client is a thin JSON client for the clinic backend.
type Client struct {
	http     *resty.Client
	observer RequestObserver
	logger   *logging.Logger
}

// New creates a backend client. observer may be nil.
func New(cfg Config, observer RequestObserver, logger *logging.Logger) *Client {
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	httpClient := resty.New().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetTimeout(cfg.Timeout).
		SetHeader("Accept", "application/json")
	return &Client{http: httpClient, observer: observer, logger: logger}
}

// call describes one backend request.
type call struct {
	op     string
	method string
	path   string
	query  map[string]string
	body   any
}

// errorBody is the backend's error envelope; either field may carry the message.
type errorBody struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

// do sends c and decodes a 2xx body into out. Non-2xx responses become
// apierror.Upstream with the backend's own message.
func (cl *Client) do(ctx context.Context, c call, out any) error {
	ctx, span := tracer.Start(ctx, "upstream."+c.op, trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()
	span.SetAttributes(
		attribute.String("http.method", c.method),
		attribute.String("upstream.path", c.path),
	)

	req := cl.http.R().SetContext(ctx)
	if token, ok := tenancy.TokenFromContext(ctx); ok {
		req.SetAuthToken(token)
	}
	if len(c.query) > 0 {
		req.SetQueryParams(c.query)
	}
	if c.body != nil {
		req.SetHeader("Content-Type", "application/json").SetBody(c.body)
	}

	start := time.Now()
	resp, err := req.Execute(c.method, c.path)
	elapsed := time.Since(start).Seconds()
	if err != nil {
		cl.observe(c.op, false, elapsed)
		span.RecordError(err)
		span.SetStatus(codes.Error, "transport")
		if ctx.Err() != nil {
			return ctx.Err()
		}
		cl.logger.Warn("backend unreachable", "op", c.op, "path", c.path, "error", err)
		return apierror.Upstream(c.op, http.StatusBadGateway, "")
	}

	status := resp.StatusCode()
	span.SetAttributes(attribute.Int("http.status_code", status))
	if status < 200 || status > 299 {
		cl.observe(c.op, false, elapsed)
		msg := messageFrom(resp.Body())
		span.SetStatus(codes.Error, msg)
		cl.logger.Warn("backend non-2xx response", "op", c.op, "status", status, "path", c.path, "message", msg)
		return apierror.Upstream(c.op, status, msg)
	}
	cl.observe(c.op, true, elapsed)

	body := resp.Body()
	if out == nil || len(body) == 0 {
		return nil
	}
	if err := decode(body, out); err != nil {
		span.RecordError(err)
		return fmt.Errorf("upstream: %s: decode response: %w", c.op, err)
	}
	return nil
}

func (cl *Client) observe(op string, ok bool, seconds float64) {
	if cl.observer != nil {
		cl.observer.ObserveRequest(op, ok, seconds)
	}
}

func messageFrom(body []byte) string {
	var eb errorBody
	if err := json.Unmarshal(body, &eb); err == nil {
		if eb.Message != "" {
			return eb.Message
		}
		if eb.Error != "" {
			return eb.Error
		}
	}
	return ""
}

// decode accepts both bare payloads and {"data": payload} envelopes.
func decode(body []byte, out any) error {
	var env struct {
		Data json.RawMessage `json:"data"`
	}
	trimmed := strings.TrimSpace(string(body))
	if strings.HasPrefix(trimmed, "{") {
		if err := json.Unmarshal(body, &env); err == nil && len(env.Data) > 0 && string(env.Data) != "null" {
			return json.Unmarshal(env.Data, out)
		}
	}
	return json.Unmarshal(body, out)
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}

func dateRange(from, to time.Time) map[string]string {
	return map[string]string{"from": from.UTC().Format(time.RFC3339), "to": to.UTC().Format(time.RFC3339)}
}
