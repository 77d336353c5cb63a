// Package metrics exposes the liquidator's prometheus instrumentation and an
// optional /metrics listener.
package metrics

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// CyclesTotal counts completed polling cycles.
	CyclesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "liquidator",
		Subsystem: "engine",
		Name:      "cycles_total",
		Help:      "Number of completed polling cycles",
	})

	// CycleDuration observes wall time per cycle, refresh through fan-out.
	CycleDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "liquidator",
		Subsystem: "engine",
		Name:      "cycle_duration_seconds",
		Help:      "Wall time of one full polling cycle",
		Buckets:   []float64{0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
	})

	// TrackedAccounts reports the size of the account registry.
	TrackedAccounts = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "liquidator",
		Subsystem: "engine",
		Name:      "tracked_accounts",
		Help:      "Number of accounts in the registry",
	})

	// AccountsEvaluated counts accounts taken through settle and evaluate.
	AccountsEvaluated = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "liquidator",
		Subsystem: "engine",
		Name:      "accounts_evaluated_total",
		Help:      "Accounts successfully settled and evaluated",
	})

	// AccountErrors counts per-account failures by stage. Each failure skips
	// one account for one cycle only.
	AccountErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "liquidator",
		Subsystem: "engine",
		Name:      "account_errors_total",
		Help:      "Per-account failures by pipeline stage",
	}, []string{"stage"}) // fetch, decode, funding, evaluate, refresh

	// Liquidations counts submission attempts by outcome.
	Liquidations = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "liquidator",
		Subsystem: "executor",
		Name:      "liquidations_total",
		Help:      "Liquidation transactions by outcome",
	}, []string{"result"}) // submitted, failed
)

// Serve runs the /metrics endpoint on addr until ctx is cancelled.
func Serve(ctx context.Context, addr string, logger *slog.Logger) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{Addr: addr, Handler: mux}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Info("metrics listener started", slog.String("addr", addr))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
