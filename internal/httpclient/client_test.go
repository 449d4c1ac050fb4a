package httpclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fd1az/defi-optimizer/internal/apperror"
	"github.com/fd1az/defi-optimizer/internal/ratelimit"
)

type quoteResult struct {
	OutAmount string `json:"outAmount"`
}

func TestRequest_GetWithQueryAndResult(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v6/quote", r.URL.Path)
		assert.Equal(t, "So11111111111111111111111111111111111111112", r.URL.Query().Get("inputMint"))
		assert.Equal(t, "a b&c", r.URL.Query().Get("note"), "query values must be escaped")
		assert.Equal(t, "token", r.Header.Get("X-Api-Key"))
		w.Write([]byte(`{"outAmount":"17000000"}`))
	}))
	defer srv.Close()

	c, err := New(WithBaseURL(srv.URL+"/v6/"), WithProviderName("jupiter"),
		WithHeaders(map[string]string{"X-Api-Key": "token"}))
	require.NoError(t, err)

	var out quoteResult
	resp, err := c.NewRequest().
		SetQueryParam("inputMint", "So11111111111111111111111111111111111111112").
		SetQueryParam("note", "a b&c").
		SetResult(&out).
		Get(context.Background(), "/quote")
	require.NoError(t, err)
	assert.True(t, resp.IsSuccess())
	assert.Equal(t, "17000000", out.OutAmount)
}

func TestRequest_PostJSONBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "owner", body["userPublicKey"])
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c, err := New(WithBaseURL(srv.URL))
	require.NoError(t, err)

	_, err = c.NewRequest().SetBody(map[string]string{"userPublicKey": "owner"}).Post(context.Background(), "swap")
	require.NoError(t, err)
}

func TestRequest_StatusMapping(t *testing.T) {
	tests := []struct {
		status int
		code   apperror.Code
	}{
		{http.StatusTooManyRequests, apperror.CodeRateLimitExceeded},
		{http.StatusBadGateway, apperror.CodeServiceUnavailable},
		{http.StatusBadRequest, apperror.CodeExternalServiceError},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(`{"error":"nope"}`))
			}))
			defer srv.Close()

			c, err := New(WithBaseURL(srv.URL))
			require.NoError(t, err)

			resp, err := c.NewRequest().Get(context.Background(), "/")
			assert.True(t, apperror.HasCode(err, tt.code), "got %v", err)
			require.NotNil(t, resp)
			assert.Equal(t, tt.status, resp.StatusCode)
		})
	}
}

func TestRequest_CustomErrorHandler(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c, err := New(WithBaseURL(srv.URL))
	require.NoError(t, err)

	accept := func(int, []byte) error { return nil }
	resp, err := c.NewRequest(WithResponseErrorHandler(accept)).Get(context.Background(), "/")
	require.NoError(t, err)
	assert.False(t, resp.IsSuccess())
}

func TestRequest_DecodeFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`not json`))
	}))
	defer srv.Close()

	c, err := New(WithBaseURL(srv.URL))
	require.NoError(t, err)

	var out quoteResult
	_, err = c.NewRequest().SetResult(&out).Get(context.Background(), "/")
	assert.True(t, apperror.HasCode(err, apperror.CodeInvalidFormat), "got %v", err)
}

func TestRequest_RateLimiterCancelled(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
	}))
	defer srv.Close()

	limiter := ratelimit.New("test", 0.001, 1)
	limiter.Allow()

	c, err := New(WithBaseURL(srv.URL), WithRateLimiter(limiter))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = c.NewRequest().Get(ctx, "/")
	assert.True(t, apperror.HasCode(err, apperror.CodeRateLimitExceeded), "got %v", err)
	assert.Zero(t, calls)
}
