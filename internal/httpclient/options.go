// Package httpclient provides an instrumented HTTP client with OTEL tracing and metrics.
package httpclient

import (
	"net/http"
	"time"

	"go.opentelemetry.io/otel/metric"

	"github.com/fd1az/defi-optimizer/internal/ratelimit"
)

type clientOptions struct {
	meterProvider metric.MeterProvider
	providerName  string
	roundTripper  http.RoundTripper
	timeout       time.Duration
	headers       map[string]string
	baseURL       string
	limiter       *ratelimit.Limiter
	traceRequest  bool
	traceResponse bool
}

// Option configures the client.
type Option func(*clientOptions)

// WithMeterProvider sets the OTEL meter provider. Defaults to the global one.
func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(o *clientOptions) { o.meterProvider = mp }
}

// WithProviderName names the upstream in metrics and spans.
func WithProviderName(name string) Option {
	return func(o *clientOptions) { o.providerName = name }
}

// WithRoundTripper replaces the base transport (wrapped by otelhttp).
func WithRoundTripper(rt http.RoundTripper) Option {
	return func(o *clientOptions) { o.roundTripper = rt }
}

// WithTimeout sets the overall per-request timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(o *clientOptions) { o.timeout = timeout }
}

// WithHeaders sets headers sent on every request.
func WithHeaders(headers map[string]string) Option {
	return func(o *clientOptions) { o.headers = headers }
}

// WithBaseURL makes relative request paths resolve against url.
func WithBaseURL(url string) Option {
	return func(o *clientOptions) { o.baseURL = url }
}

// WithRateLimiter makes every request wait on l before it is sent.
func WithRateLimiter(l *ratelimit.Limiter) Option {
	return func(o *clientOptions) { o.limiter = l }
}

// WithBodyTracing records request and/or response bodies as span events.
func WithBodyTracing(request, response bool) Option {
	return func(o *clientOptions) {
		o.traceRequest = request
		o.traceResponse = response
	}
}

type requestOptions struct {
	errorHandler ResponseErrorHandler
	labels       []Label
}

// RequestOption configures a single request.
type RequestOption func(*requestOptions)

// ResponseErrorHandler turns a response into an error, or returns nil to
// accept it.
type ResponseErrorHandler func(statusCode int, body []byte) error

// WithResponseErrorHandler overrides DefaultErrorHandler for one request.
func WithResponseErrorHandler(handler ResponseErrorHandler) RequestOption {
	return func(o *requestOptions) { o.errorHandler = handler }
}

// Label is a key-value pair added to request metrics.
type Label struct {
	Key   string
	Value string
}

// WithLabels adds metric labels to the request.
func WithLabels(labels ...Label) RequestOption {
	return func(o *requestOptions) { o.labels = append(o.labels, labels...) }
}
