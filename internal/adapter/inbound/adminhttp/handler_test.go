package adminhttp_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/inovexcorp/mobi-mcp/internal/adapter/inbound/adminhttp"
	"github.com/inovexcorp/mobi-mcp/internal/adapter/outbound/mobi"
)

type fakePinger struct {
	result any
	err    error
}

func (f *fakePinger) ListRecords(_ context.Context, _ mobi.ListRecordsParams) (any, error) {
	return f.result, f.err
}

func newTestMux(pinger *fakePinger) *http.ServeMux {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	mux := http.NewServeMux()
	adminhttp.NewHandlers(pinger, logger).Register(mux)
	return mux
}

func TestHealthz(t *testing.T) {
	mux := newTestMux(&fakePinger{})

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestReadyz(t *testing.T) {
	tests := []struct {
		name     string
		pinger   *fakePinger
		wantCode int
	}{
		{name: "backend reachable", pinger: &fakePinger{result: map[string]any{}}, wantCode: http.StatusOK},
		{name: "backend absent", pinger: &fakePinger{result: nil}, wantCode: http.StatusServiceUnavailable},
		{name: "client error", pinger: &fakePinger{err: errors.New("boom")}, wantCode: http.StatusServiceUnavailable},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			mux := newTestMux(tc.pinger)
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
			assert.Equal(t, tc.wantCode, rec.Code)
		})
	}
}
