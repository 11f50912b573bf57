package metrics

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	FramesSaved = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "hikgrab_frames_saved_total",
			Help: "Frames encoded and saved by the capture loop",
		},
	)

	PollFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "hikgrab_poll_failures_total",
			Help: "Image buffer polls that returned no frame",
		},
	)

	SaveFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hikgrab_save_failures_total",
			Help: "Frames acquired but not persisted",
		},
		[]string{"stage"},
	)

	EncodeDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "hikgrab_encode_seconds",
			Help:    "Time spent converting a frame to a stamped JPEG",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12),
		},
	)

	FramesStored = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "hikgrab_frames_stored_total",
			Help: "Frames written by the collector on behalf of remote cameras",
		},
	)
)

func Router() *mux.Router {
	r := mux.NewRouter()
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
	return r
}

// Serve exposes /metrics on addr until ctx is done.
func Serve(ctx context.Context, addr string) error {
	server := &http.Server{
		Addr:        addr,
		ReadTimeout: 5 * time.Second,
		Handler:     Router(),
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 1*time.Second)
		defer cancel()
		server.Shutdown(shutdownCtx)
	}()

	slog.Info("serving metrics", "addr", addr)
	if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
