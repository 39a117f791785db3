package observability

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync/atomic"
)

const (
	healthStatusOK          = "ok"
	healthStatusUnavailable = "unavailable"
)

// ErrNotReady is returned by a closed ReadyGate.
var ErrNotReady = errors.New("not ready")

// ReadyCheck reports whether a subsystem is ready; nil means ready.
type ReadyCheck func(ctx context.Context) error

// ReadyGate is a ReadyCheck that fails until Open is called. It is safe for
// use by concurrent requests.
type ReadyGate struct {
	name string
	open atomic.Bool
}

// NewReadyGate returns a closed gate; name appears in its error.
func NewReadyGate(name string) *ReadyGate {
	return &ReadyGate{name: name}
}

// Open marks the gate ready.
func (g *ReadyGate) Open() { g.open.Store(true) }

// Close marks the gate not ready.
func (g *ReadyGate) Close() { g.open.Store(false) }

// Check implements ReadyCheck.
func (g *ReadyGate) Check(_ context.Context) error {
	if g.open.Load() {
		return nil
	}

	return fmt.Errorf("%w: %s", ErrNotReady, g.name)
}

// HealthHandler returns an [http.Handler] for liveness checks at /healthz.
// It always answers 200 with {"status":"ok"}.
func HealthHandler() http.Handler {
	return http.HandlerFunc(func(rw http.ResponseWriter, hr *http.Request) {
		rw.Header().Set("Content-Type", "application/json")
		rw.WriteHeader(http.StatusOK)
		respond(hr.Context(), rw, healthStatusOK)
	})
}

// ReadyHandler returns an [http.Handler] for readiness checks at /readyz.
// Any failing check turns the answer into 503 with {"status":"unavailable"}.
func ReadyHandler(checks ...ReadyCheck) http.Handler {
	return http.HandlerFunc(func(rw http.ResponseWriter, hr *http.Request) {
		rw.Header().Set("Content-Type", "application/json")

		for _, check := range checks {
			err := check(hr.Context())
			if err != nil {
				slog.DebugContext(hr.Context(), "readiness check failed", "error", err)

				rw.WriteHeader(http.StatusServiceUnavailable)
				respond(hr.Context(), rw, healthStatusUnavailable)

				return
			}
		}

		rw.WriteHeader(http.StatusOK)
		respond(hr.Context(), rw, healthStatusOK)
	})
}

// respond writes the status body; the status code is already sent, so a
// failed write can only be logged.
func respond(ctx context.Context, w io.Writer, status string) {
	err := writeHealthJSON(w, status)
	if err != nil {
		slog.WarnContext(ctx, "health response not written", "status", status, "error", err)
	}
}

func writeHealthJSON(w io.Writer, status string) error {
	data, err := json.Marshal(map[string]string{"status": status})
	if err != nil {
		return fmt.Errorf("encode health status: %w", err)
	}

	_, err = w.Write(data)
	if err != nil {
		return fmt.Errorf("write health status: %w", err)
	}

	return nil
}
