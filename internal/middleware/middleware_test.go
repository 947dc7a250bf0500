package middleware

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func okHandler(body string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(body))
	})
}

func serve(h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestChain_AppliesInOrder(t *testing.T) {
	t.Parallel()

	tag := func(name string) Middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(name + "("))
				next.ServeHTTP(w, r)
				_, _ = w.Write([]byte(")"))
			})
		}
	}

	rr := serve(Chain(okHandler("h")), httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, "h", rr.Body.String())

	rr = serve(Chain(okHandler("h"), tag("a"), tag("b")), httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, "a(b(h))", rr.Body.String())
}

func TestRequestID(t *testing.T) {
	t.Parallel()

	var seen string
	h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetRequestID(r.Context())
	}))

	rr := serve(h, httptest.NewRequest(http.MethodGet, "/", nil))
	_, err := uuid.Parse(seen)
	require.NoError(t, err, "generated id should be a uuid")
	assert.Equal(t, seen, rr.Header().Get("X-Request-ID"))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "quest-42")
	rr = serve(h, req)
	assert.Equal(t, "quest-42", seen)
	assert.Equal(t, "quest-42", rr.Header().Get("X-Request-ID"))
}

func TestGetRequestID_MissingOrWrongType(t *testing.T) {
	t.Parallel()

	assert.Empty(t, GetRequestID(context.Background()))
	assert.Empty(t, GetRequestID(context.WithValue(context.Background(), RequestIDKey, 42)))
}

func TestRecovery(t *testing.T) {
	t.Parallel()

	rr := serve(Recovery(okHandler("fine")), httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "fine", rr.Body.String())

	panicky := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("dragon ate the handler")
	})
	rr = serve(Recovery(panicky), httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Equal(t, "application/problem+json", rr.Header().Get("Content-Type"))
	assert.Contains(t, rr.Body.String(), `"code":5001`)
	assert.NotContains(t, rr.Body.String(), "dragon")
}

func TestRecovery_AfterHeadersWritten(t *testing.T) {
	t.Parallel()

	midway := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
		_, _ = w.Write([]byte("partial"))
		panic("mid-stream")
	})
	rr := serve(Recovery(midway), httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusAccepted, rr.Code)
	assert.Equal(t, "partial", rr.Body.String())
}

func TestCORS(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		allowed    []string
		origin     string
		wantOrigin string
	}{
		{"allowed origin", []string{"http://localhost:3000"}, "http://localhost:3000", "http://localhost:3000"},
		{"disallowed origin", []string{"http://localhost:3000"}, "http://evil.example", ""},
		{"wildcard", []string{"*"}, "http://anything.example", "http://anything.example"},
		{"no origin", []string{"http://localhost:3000"}, "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.origin != "" {
				req.Header.Set("Origin", tt.origin)
			}
			rr := serve(CORS(tt.allowed)(okHandler("ok")), req)
			assert.Equal(t, tt.wantOrigin, rr.Header().Get("Access-Control-Allow-Origin"))
			assert.Equal(t, "ok", rr.Body.String())
		})
	}
}

func TestCORS_Preflight(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest(http.MethodOptions, "/v1/teams", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	rr := serve(CORS([]string{"http://localhost:3000"})(okHandler("never")), req)

	assert.Equal(t, http.StatusNoContent, rr.Code)
	assert.Empty(t, rr.Body.String())
	assert.Contains(t, rr.Header().Get("Access-Control-Allow-Headers"), "Idempotency-Key")
	assert.Contains(t, rr.Header().Get("Access-Control-Expose-Headers"), "X-Idempotency-Replayed")
}

func TestCompress_Gzip(t *testing.T) {
	t.Parallel()

	body := bytes.Repeat([]byte("roll for initiative "), 50)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Accept-Encoding", "gzip, deflate")
	rr := serve(Compress(okHandler(string(body))), req)

	require.Equal(t, "gzip", rr.Header().Get("Content-Encoding"))
	zr, err := gzip.NewReader(rr.Body)
	require.NoError(t, err)
	got, err := io.ReadAll(zr)
	require.NoError(t, err)
	assert.Equal(t, body, got)
}

func TestCompress_Skips(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		headers map[string]string
	}{
		{"no accept-encoding", map[string]string{}},
		{"event stream", map[string]string{"Accept-Encoding": "gzip", "Accept": "text/event-stream"}},
		{"websocket upgrade", map[string]string{"Accept-Encoding": "gzip", "Upgrade": "websocket"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			rr := serve(Compress(okHandler("plain")), req)
			assert.Empty(t, rr.Header().Get("Content-Encoding"))
			assert.Equal(t, "plain", rr.Body.String())
		})
	}
}

func TestResponseWriter_StatusAndFlush(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	rw := &responseWriter{ResponseWriter: rec, statusCode: http.StatusOK}
	rw.WriteHeader(http.StatusTeapot)
	rw.Flush()

	assert.Equal(t, http.StatusTeapot, rw.statusCode)
	assert.True(t, rec.Flushed)
	assert.Same(t, rec, rw.Unwrap())
}

func TestResponseWriter_HijackUnsupported(t *testing.T) {
	t.Parallel()

	rw := &responseWriter{ResponseWriter: httptest.NewRecorder(), statusCode: http.StatusOK}
	_, _, err := rw.Hijack()
	assert.Error(t, err)
}

func TestGzipResponseWriter_FlushReachesClient(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	gz := gzip.NewWriter(rec)
	grw := &gzipResponseWriter{ResponseWriter: rec, Writer: gz}

	_, err := grw.Write([]byte("partial"))
	require.NoError(t, err)
	grw.Flush()

	assert.True(t, rec.Flushed)
	assert.NotZero(t, rec.Body.Len(), "flush pushes compressed bytes through")
}

func TestLogger_PassesThrough(t *testing.T) {
	t.Parallel()

	h := Logger(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte("created"))
	}))
	rr := serve(h, httptest.NewRequest(http.MethodPost, "/v1/teams", nil))

	assert.Equal(t, http.StatusCreated, rr.Code)
	assert.Equal(t, "created", rr.Body.String())
}
