package httpclient

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"net/http/httptrace"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/httptrace/otelhttptrace"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/fd1az/defi-optimizer/internal/apperror"
	"github.com/fd1az/defi-optimizer/internal/ratelimit"
)

const (
	defaultTimeout         = 10 * time.Second
	defaultDialKeepAlive   = 10 * time.Second
	defaultMaxConnsPerHost = 5
	defaultIdleConnTimeout = 2 * time.Minute

	metricRequestCounter = "http_client_requests_total"
	instrumentationName  = "instrumented_http_client"
)

// Client builds instrumented requests.
type Client interface {
	NewRequest(opts ...RequestOption) Request
}

// InstrumentedClient wraps http.Client with OTEL tracing, a request
// counter and an optional rate limiter.
type InstrumentedClient struct {
	client         *http.Client
	requestCounter metric.Int64Counter
	tracer         trace.Tracer
	opts           clientOptions
}

var _ Client = (*InstrumentedClient)(nil)

// New creates an instrumented HTTP client.
func New(opts ...Option) (*InstrumentedClient, error) {
	o := clientOptions{providerName: "default", timeout: defaultTimeout}
	for _, opt := range opts {
		opt(&o)
	}

	base := o.roundTripper
	if base == nil {
		base = &http.Transport{
			Proxy:           http.ProxyFromEnvironment,
			DialContext:     (&net.Dialer{KeepAlive: defaultDialKeepAlive}).DialContext,
			MaxConnsPerHost: defaultMaxConnsPerHost,
			IdleConnTimeout: defaultIdleConnTimeout,
		}
	}

	httpClient := &http.Client{
		Timeout: o.timeout,
		Transport: otelhttp.NewTransport(base,
			otelhttp.WithClientTrace(func(ctx context.Context) *httptrace.ClientTrace {
				return otelhttptrace.NewClientTrace(ctx)
			}),
		),
	}

	mp := o.meterProvider
	if mp == nil {
		mp = otel.GetMeterProvider()
	}
	meter := mp.Meter(instrumentationName,
		metric.WithInstrumentationAttributes(attribute.String("provider", o.providerName)))

	counter, err := meter.Int64Counter(metricRequestCounter,
		metric.WithDescription("Total number of outbound HTTP requests"))
	if err != nil {
		return nil, fmt.Errorf("httpclient: request counter: %w", err)
	}

	return &InstrumentedClient{
		client:         httpClient,
		requestCounter: counter,
		tracer:         otel.Tracer(instrumentationName),
		opts:           o,
	}, nil
}

// NewRequest starts a request with the client's defaults.
func (c *InstrumentedClient) NewRequest(opts ...RequestOption) Request {
	ro := requestOptions{errorHandler: DefaultErrorHandler(c.opts.providerName)}
	for _, opt := range opts {
		opt(&ro)
	}

	headers := make(map[string]string, len(c.opts.headers))
	for k, v := range c.opts.headers {
		headers[k] = v
	}

	return &requestBuilder{
		c:            c,
		headers:      headers,
		errorHandler: ro.errorHandler,
		labels:       ro.labels,
	}
}

func (c *InstrumentedClient) limiter() *ratelimit.Limiter {
	return c.opts.limiter
}

// DefaultErrorHandler maps 429 to RATE_LIMIT_EXCEEDED, 5xx to
// SERVICE_UNAVAILABLE and other 4xx to EXTERNAL_SERVICE_ERROR.
func DefaultErrorHandler(provider string) ResponseErrorHandler {
	return func(status int, body []byte) error {
		if status < 400 {
			return nil
		}
		ctx := fmt.Sprintf("%s: HTTP %d: %s", provider, status, truncate(body, 200))
		switch {
		case status == http.StatusTooManyRequests:
			return apperror.New(apperror.CodeRateLimitExceeded, apperror.WithContext(ctx))
		case status >= 500:
			return apperror.New(apperror.CodeServiceUnavailable, apperror.WithContext(ctx))
		default:
			return apperror.New(apperror.CodeExternalServiceError, apperror.WithContext(ctx))
		}
	}
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
