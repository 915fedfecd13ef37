package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	. "github.com/smartystreets/goconvey/convey"
)

func TestManagerCreation(t *testing.T) {
	Convey("Given an isolated registry", t, func() {
		registry := prometheus.NewRegistry()

		Convey("When creating a manager with custom options", func() {
			manager := NewManager(
				WithNamespace("test"),
				WithSubsystem("unit"),
				WithHistogramBuckets([]float64{1, 5, 10}),
				WithConstLabels(map[string]string{"env": "test"}),
				WithPrometheusRegistry(registry),
			)

			Convey("Then collectors are registered under the namespace", func() {
				So(manager, ShouldNotBeNil)
				manager.RecordRowEvaluated("normal")
				families, err := registry.Gather()
				So(err, ShouldBeNil)
				found := false
				for _, f := range families {
					if f.GetName() == "test_unit_rows_evaluated_total" {
						found = true
					}
				}
				So(found, ShouldBeTrue)
			})
		})
	})
}

func TestManagerRecorders(t *testing.T) {
	Convey("Given a manager on its own registry", t, func() {
		manager := NewManager(WithPrometheusRegistry(prometheus.NewRegistry()))

		Convey("When rows and age parses are recorded", func() {
			manager.RecordRowEvaluated("stage1")
			manager.RecordRowEvaluated("stage1")
			manager.RecordAgeParse("years_months")
			manager.RecordMappingFallback("en")
			manager.RecordMissingColumns()
			manager.RecordEvaluation(10, 2.5)

			Convey("Then the counters reflect them", func() {
				So(testutil.ToFloat64(manager.rowsEvaluated.WithLabelValues("stage1")), ShouldEqual, 2)
				So(testutil.ToFloat64(manager.ageParses.WithLabelValues("years_months")), ShouldEqual, 1)
				So(testutil.ToFloat64(manager.mappingFallbacks.WithLabelValues("en")), ShouldEqual, 1)
				So(testutil.ToFloat64(manager.missingColumns), ShouldEqual, 1)
			})
		})

		Convey("When the manager is disabled", func() {
			disabled := NewManager(WithPrometheusRegistry(prometheus.NewRegistry()), WithMetricsEnabled(false))
			disabled.RecordRowEvaluated("normal")

			Convey("Then nothing is counted", func() {
				So(testutil.ToFloat64(disabled.rowsEvaluated.WithLabelValues("normal")), ShouldEqual, 0)
			})
		})
	})
}

func TestGlobalRecorders(t *testing.T) {
	Convey("Given the global manager", t, func() {
		Convey("Then the package-level recorders do not panic", func() {
			So(func() {
				RecordRowEvaluated("normal")
				RecordAgeParse("bare")
				RecordMappingFallback("zh")
				RecordMissingColumns()
				RecordEvaluation(1, 0.1)
				UpdateJobQueueSize(1)
				UpdateJobQueueCapacity(10)
				RecordJobEnqueued()
				RecordJobEnqueueError("full")
				RecordJobFinished("done")
				RecordJobLatency(3)
				RecordJobDuplicate()
				UpdateJobStoreSize(1)
				UpdateWorkerCount(2)
				RecordErrorByComponent("worker", "evaluate")
				RecordHTTPRequest("evaluate", "POST", "200")
				RecordHTTPRequestDuration("evaluate", "POST", "200", 1.5)
				RecordHTTPRequestRows("evaluate", "ok", 3)
				RecordErrorByType("client_error", "medium")
				RecordErrorByEndpoint("evaluate", "POST", "client_error")
				RecordErrorLatency("http", "client_error", 2)
				UpdateSystemMemoryUsage(1024)
				UpdateSystemGoroutineCount(4)
				RecordSystemGCPauseTime(0.2)
			}, ShouldNotPanic)
		})

		Convey("Then the registry exposes the recorded families", func() {
			RecordJobEnqueued()
			families, err := GetRegistry().Gather()
			So(err, ShouldBeNil)
			So(len(families), ShouldBeGreaterThan, 0)
		})
	})
}
