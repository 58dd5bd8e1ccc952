package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/okian/collegepath/internal/config"
	"github.com/okian/collegepath/internal/domain/catalog"
	"github.com/okian/collegepath/pkg/logger"
	"github.com/okian/collegepath/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/smartystreets/goconvey/convey"
)

func TestMainFunction(t *testing.T) {
	convey.Convey("Given the main application", t, func() {
		convey.So(logger.Init(), convey.ShouldBeNil)

		convey.Convey("When configuration comes from the environment", func() {
			_ = os.Setenv("COLLEGEPATH_ADDR", ":8081")
			_ = os.Setenv("COLLEGEPATH_QUEUE_SIZE", "64")
			_ = os.Setenv("COLLEGEPATH_WORKER_COUNT", "2")
			defer func() {
				_ = os.Unsetenv("COLLEGEPATH_ADDR")
				_ = os.Unsetenv("COLLEGEPATH_QUEUE_SIZE")
				_ = os.Unsetenv("COLLEGEPATH_WORKER_COUNT")
			}()

			cfg, err := config.Load(context.Background())

			convey.Convey("Then it is loaded and drives the HTTP server", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8081")
				convey.So(cfg.QueueSize, convey.ShouldEqual, 64)
				convey.So(cfg.WorkerCount, convey.ShouldEqual, 2)

				srv := newHTTPServer(cfg, http.NewServeMux())
				convey.So(srv.Addr, convey.ShouldEqual, ":8081")
				convey.So(srv.ReadHeaderTimeout, convey.ShouldEqual, readHeaderTimeout)
			})
		})

		convey.Convey("When the address is empty", func() {
			_ = os.Setenv("COLLEGEPATH_ADDR", "")
			defer func() { _ = os.Unsetenv("COLLEGEPATH_ADDR") }()

			convey.Convey("Then run refuses to start", func() {
				convey.So(run(context.Background()), convey.ShouldNotBeNil)
			})
		})
	})
}

func TestMux(t *testing.T) {
	convey.Convey("Given a started service behind the full mux", t, func() {
		convey.So(logger.Init(), convey.ShouldBeNil)
		ctx := context.Background()
		cfg := config.New()
		cfg.WorkerCount = 1
		svc := newService(cfg, catalog.Default(), logger.Get())
		convey.So(svc.Start(ctx), convey.ShouldBeNil)
		defer svc.Stop()
		mux := newMux(ctx, cfg, svc)

		get := func(path string) *httptest.ResponseRecorder {
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, http.NoBody))
			return w
		}

		convey.Convey("Then docs and business routes are served", func() {
			convey.So(get("/healthz").Code, convey.ShouldEqual, http.StatusOK)
			convey.So(get("/api-docs").Code, convey.ShouldEqual, http.StatusOK)
			convey.So(get("/openapi.yaml").Code, convey.ShouldEqual, http.StatusOK)
			convey.So(get("/colleges").Code, convey.ShouldEqual, http.StatusOK)
			convey.So(get("/stats").Code, convey.ShouldEqual, http.StatusOK)
		})

		convey.Convey("Then a recommendation can be requested", func() {
			w := httptest.NewRecorder()
			body := `{"state":"punjab","stream":"arts","marks10th":"70","marks12th":"72","percentile":"85"}`
			mux.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/recommendations", strings.NewReader(body)))
			convey.So(w.Code, convey.ShouldEqual, http.StatusOK)
			convey.So(w.Body.String(), convey.ShouldContainSubstring, `"stream":"arts"`)
		})

		convey.Convey("Then the metrics updaters run without panicking", func() {
			convey.So(func() { updateSystemMetrics() }, convey.ShouldNotPanic)
			convey.So(func() { updateServiceMetrics(svc) }, convey.ShouldNotPanic)

			tctx, cancel := context.WithTimeout(ctx, 50*time.Millisecond)
			defer cancel()
			convey.So(func() { startSystemMetricsUpdater(tctx) }, convey.ShouldNotPanic)
			convey.So(func() { startServiceMetricsUpdater(tctx, svc) }, convey.ShouldNotPanic)
		})
	})
}

func TestMetricsManager(t *testing.T) {
	convey.Convey("Given a private registry", t, func() {
		manager := metrics.NewManager(metrics.WithPrometheusRegistry(prometheus.NewRegistry()))

		convey.Convey("Then a manager can be created alongside the global one", func() {
			convey.So(manager, convey.ShouldNotBeNil)
			convey.So(manager.Enabled(), convey.ShouldBeTrue)
		})
	})
}
