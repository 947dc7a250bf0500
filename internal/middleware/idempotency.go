package middleware

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/http"
	"sync"
	"time"
)

// ReplayStore remembers the outcome of write requests that carried an
// Idempotency-Key, so a client retrying a fee payment or a mint after a
// dropped connection gets the first answer instead of a second effect.
type ReplayStore struct {
	mu      sync.Mutex
	entries map[string]*replayEntry
	ttl     time.Duration
	now     func() time.Time
	stop    chan struct{}
	once    sync.Once
}

type replayEntry struct {
	status    int
	headers   http.Header
	body      []byte
	expiresAt time.Time
	done      chan struct{}
}

func (e *replayEntry) pending() bool {
	select {
	case <-e.done:
		return false
	default:
		return true
	}
}

// ReplayConfig holds configuration for the Idempotency middleware
type ReplayConfig struct {
	TTL     time.Duration // How long a recorded response is replayed (default 24h)
	Cleanup time.Duration // Interval for dropping expired entries (default 1h)
}

// NewReplayStore creates a replay store and starts its cleanup loop
func NewReplayStore(cfg ReplayConfig) *ReplayStore {
	if cfg.TTL == 0 {
		cfg.TTL = 24 * time.Hour
	}
	if cfg.Cleanup == 0 {
		cfg.Cleanup = time.Hour
	}

	s := &ReplayStore{
		entries: make(map[string]*replayEntry),
		ttl:     cfg.TTL,
		now:     time.Now,
		stop:    make(chan struct{}),
	}
	go s.cleanupLoop(cfg.Cleanup)
	return s
}

// Stop stops the cleanup loop
func (s *ReplayStore) Stop() {
	s.once.Do(func() { close(s.stop) })
}

func (s *ReplayStore) cleanupLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.cleanupExpired()
		case <-s.stop:
			return
		}
	}
}

func (s *ReplayStore) cleanupExpired() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for key, e := range s.entries {
		if !e.pending() && e.expiresAt.Before(now) {
			delete(s.entries, key)
		}
	}
}

// replayKey binds the idempotency key to the caller and the exact request,
// so reusing a key for a different body is a new request
func replayKey(caller, key, method, path string, body []byte) string {
	h := sha256.New()
	for _, part := range []string{caller, key, method, path} {
		h.Write([]byte(part))
		h.Write([]byte{0})
	}
	h.Write(body)
	return hex.EncodeToString(h.Sum(nil))
}

type recordingWriter struct {
	http.ResponseWriter
	status int
	body   bytes.Buffer
}

func (w *recordingWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

func (w *recordingWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

func replay(w http.ResponseWriter, e *replayEntry) {
	for k, v := range e.headers {
		w.Header()[k] = append([]string(nil), v...)
	}
	w.Header().Set("X-Idempotency-Replayed", "true")
	w.WriteHeader(e.status)
	_, _ = w.Write(e.body)
}

// Idempotency replays the recorded response for a repeated POST that carries
// the same Idempotency-Key. Only 2xx responses are recorded; a failed attempt
// may be retried with the same key.
func Idempotency(store *ReplayStore) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			idemKey := r.Header.Get("Idempotency-Key")
			if r.Method != http.MethodPost || idemKey == "" {
				next.ServeHTTP(w, r)
				return
			}

			body, err := io.ReadAll(r.Body)
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}
			r.Body = io.NopCloser(bytes.NewReader(body))

			caller := GetCaller(r.Context()).String()
			if caller == "" {
				caller = r.RemoteAddr
			}
			key := replayKey(caller, idemKey, r.Method, r.URL.Path, body)

			for {
				store.mu.Lock()
				e, ok := store.entries[key]
				if !ok || (!e.pending() && e.expiresAt.Before(store.now())) {
					break
				}
				store.mu.Unlock()

				<-e.done
				store.mu.Lock()
				done, still := store.entries[key]
				store.mu.Unlock()
				if still && done == e {
					replay(w, e)
					return
				}
				// the first attempt failed and was forgotten; run this one
			}

			e := &replayEntry{done: make(chan struct{})}
			store.entries[key] = e
			store.mu.Unlock()

			rec := &recordingWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)

			store.mu.Lock()
			if rec.status >= 200 && rec.status < 300 {
				e.status = rec.status
				e.headers = rec.Header().Clone()
				e.body = rec.body.Bytes()
				e.expiresAt = store.now().Add(store.ttl)
			} else {
				delete(store.entries, key)
			}
			close(e.done)
			store.mu.Unlock()
		})
	}
}
