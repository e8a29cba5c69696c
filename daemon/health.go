package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"cadbridge/bridge"
)

const healthShutdownTimeout = 3 * time.Second

// healthStatus is the /healthz response body.
type healthStatus struct {
	Status     string `json:"status"` // starting | ok | degraded
	LastPoll   string `json:"last_poll,omitempty"`
	Containers int    `json:"containers"`
	Upstream   string `json:"upstream"` // ok | down | unknown
}

// serveHealth runs the liveness endpoint until ctx is cancelled. It reads
// only the engine's published snapshot — never the live tables — so a poll
// in progress can't be observed half-applied.
func serveHealth(ctx context.Context, addr string, engine *bridge.Engine) error {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		st := healthStatus{Status: "starting", Upstream: "unknown"}
		if snap := engine.Current(); snap != nil {
			st.LastPoll = snap.TakenAt.UTC().Format(time.RFC3339)
			st.Containers = len(snap.Rows)
			if snap.Err != nil {
				st.Status = "degraded"
				st.Upstream = "down"
			} else {
				st.Status = "ok"
				st.Upstream = "ok"
			}
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(st)
	})

	srv := &http.Server{Addr: addr, Handler: mux}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), healthShutdownTimeout)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serve health endpoint: %w", err)
	}
	return nil
}
