package metrics

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	dto "github.com/prometheus/client_model/go"
	. "github.com/smartystreets/goconvey/convey"
)

func value(m prometheus.Metric) float64 {
	var out dto.Metric
	if err := m.Write(&out); err != nil {
		return -1
	}
	switch {
	case out.Counter != nil:
		return out.GetCounter().GetValue()
	case out.Gauge != nil:
		return out.GetGauge().GetValue()
	}
	return 0
}

func TestMetricsManagerCreation(t *testing.T) {
	Convey("Given metrics manager creation", t, func() {
		Convey("When creating with default options", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(WithPrometheusRegistry(registry))

			Convey("Then it is enabled with the default refresh interval", func() {
				So(manager, ShouldNotBeNil)
				So(manager.Enabled(), ShouldBeTrue)
				So(manager.RefreshInterval(), ShouldEqual, defaultRefreshInterval)
			})
		})

		Convey("When creating with custom options", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(
				WithNamespace("test_ns"),
				WithSubsystem("test_sub"),
				WithMetricPrefix("pfx"),
				WithHistogramBuckets([]float64{0.1, 0.5, 1.0}),
				WithMetricsEnabled(false),
				WithRefreshInterval(5*time.Second),
				WithConstLabels(map[string]string{"env": "test"}),
				WithPrometheusRegistry(registry),
			)

			Convey("Then the options are applied", func() {
				So(manager.Enabled(), ShouldBeFalse)
				So(manager.RefreshInterval(), ShouldEqual, 5*time.Second)

				families, err := registry.Gather()
				So(err, ShouldBeNil)
				So(len(families), ShouldBeGreaterThan, 0)
				for _, f := range families {
					So(strings.HasPrefix(f.GetName(), "test_ns_test_sub_pfx_"), ShouldBeTrue)
				}
			})
		})

		Convey("When zero-valued options are given", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(
				WithNamespace(""),
				WithRefreshInterval(0),
				WithHistogramBuckets(nil),
				WithPrometheusRegistry(registry),
			)

			Convey("Then defaults are kept", func() {
				So(manager.namespace, ShouldEqual, "collegepath")
				So(manager.RefreshInterval(), ShouldEqual, defaultRefreshInterval)
				So(manager.histogramBuckets, ShouldResemble, prometheus.DefBuckets)
			})
		})
	})
}

func TestRecommendationRecorders(t *testing.T) {
	Convey("Given the global manager", t, func() {
		Convey("When a non-empty recommendation is recorded", func() {
			before := value(globalManager.recommendations.WithLabelValues("arts"))
			emptyBefore := value(globalManager.emptyResults)
			RecordRecommendation("arts", 3, 0.4)

			Convey("Then the stream counter increments and the empty counter does not", func() {
				So(value(globalManager.recommendations.WithLabelValues("arts")), ShouldEqual, before+1)
				So(value(globalManager.emptyResults), ShouldEqual, emptyBefore)
			})
		})

		Convey("When an empty recommendation is recorded", func() {
			emptyBefore := value(globalManager.emptyResults)
			RecordRecommendation("commerce", 0, 0.1)

			Convey("Then the empty counter increments", func() {
				So(value(globalManager.emptyResults), ShouldEqual, emptyBefore+1)
			})
		})

		Convey("When invalid input is recorded", func() {
			before := value(globalManager.invalidInputs.WithLabelValues("percentile"))
			RecordInvalidInput("percentile")

			Convey("Then the per-field counter increments", func() {
				So(value(globalManager.invalidInputs.WithLabelValues("percentile")), ShouldEqual, before+1)
			})
		})

		Convey("When recording match scores and catalog size", func() {
			So(func() { RecordMatchScore(91) }, ShouldNotPanic)
			UpdateCatalogSize(8)

			Convey("Then the catalog gauge is set", func() {
				So(value(globalManager.catalogSize), ShouldEqual, 8.0)
			})
		})
	})
}

func TestBatchRecorders(t *testing.T) {
	Convey("Given the batch recorders", t, func() {
		Convey("When queue size is updated", func() {
			UpdateQueueCapacity(10)
			UpdateQueueSize(5, 10)

			Convey("Then size and utilization reflect it", func() {
				So(value(globalManager.queueCapacity), ShouldEqual, 10.0)
				So(value(globalManager.queueSize), ShouldEqual, 5.0)
				So(value(globalManager.queueUtilization), ShouldEqual, 0.5)
			})
		})

		Convey("When workers become busy and idle", func() {
			before := value(globalManager.workerBusy)
			AddWorkerBusy(1)
			AddWorkerBusy(1)
			AddWorkerBusy(-1)

			Convey("Then the busy gauge tracks the delta", func() {
				So(value(globalManager.workerBusy), ShouldEqual, before+1)
			})
		})

		Convey("When batches flow through", func() {
			submitted := value(globalManager.batchesSubmitted)
			dup := value(globalManager.batchesDuplicate)
			rejected := value(globalManager.batchesRejected.WithLabelValues("backpressure"))
			RecordBatchSubmitted()
			RecordBatchDuplicate()
			RecordBatchRejected("backpressure")
			RecordBatchCompleted(2.5)
			RecordBatchItem("scored")
			UpdateWorkerCount(4)
			UpdateStoredResults(3)
			RecordEvictedResult()

			Convey("Then the counters move", func() {
				So(value(globalManager.batchesSubmitted), ShouldEqual, submitted+1)
				So(value(globalManager.batchesDuplicate), ShouldEqual, dup+1)
				So(value(globalManager.batchesRejected.WithLabelValues("backpressure")), ShouldEqual, rejected+1)
				So(value(globalManager.workerCount), ShouldEqual, 4.0)
				So(value(globalManager.storedResults), ShouldEqual, 3.0)
			})
		})
	})
}

func TestHTTPAndSystemRecorders(t *testing.T) {
	Convey("Given HTTP and system recorders", t, func() {
		So(func() {
			RecordHTTPRequest("/recommendations", "POST", "200", 1.2)
			RecordHTTPError("/recommendations", "invalid_input")
			UpdateSystemMemoryUsage(1 << 20)
			UpdateSystemGoroutineCount(12)
			RecordSystemGCPauseTime(0.3)
		}, ShouldNotPanic)

		Convey("Then the registry can be gathered", func() {
			families, err := GetRegistry().Gather()
			So(err, ShouldBeNil)
			So(len(families), ShouldBeGreaterThan, 0)
		})
	})
}

func TestRegister(t *testing.T) {
	Convey("Given an extra collector", t, func() {
		c := collectors.NewGoCollector()

		Convey("When it is registered twice", func() {
			first := Register(c)
			second := Register(c)
			defer customRegistry.Unregister(c)

			Convey("Then the second attempt reports ErrRegister", func() {
				So(first, ShouldBeNil)
				So(errors.Is(second, ErrRegister), ShouldBeTrue)
			})
		})
	})
}
