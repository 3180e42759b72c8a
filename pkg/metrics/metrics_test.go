package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMetricsManagerCreation(t *testing.T) {
	Convey("Given metrics manager creation", t, func() {
		Convey("When creating with a private registry", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(WithPrometheusRegistry(registry))

			Convey("Then collectors are registered under the default namespace", func() {
				So(manager, ShouldNotBeNil)
				manager.summariesComputed.Inc()
				families, err := registry.Gather()
				So(err, ShouldBeNil)
				names := make([]string, 0, len(families))
				for _, f := range families {
					names = append(names, f.GetName())
				}
				So(names, ShouldContain, "pulse_engagement_summaries_computed_total")
			})
		})

		Convey("When creating with custom options", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(
				WithNamespace("test"),
				WithSubsystem("unit"),
				WithHistogramBuckets([]float64{1, 5, 10}),
				WithPrometheusRegistry(registry),
			)

			Convey("Then the options are applied", func() {
				So(manager.namespace, ShouldEqual, "test")
				So(manager.subsystem, ShouldEqual, "unit")
				So(manager.histogramBuckets, ShouldResemble, []float64{1, 5, 10})
			})
		})

		Convey("When empty options are given", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(WithNamespace(""), WithSubsystem(""), WithHistogramBuckets(nil), WithPrometheusRegistry(registry))

			Convey("Then defaults are kept", func() {
				So(manager.namespace, ShouldEqual, "pulse")
				So(manager.subsystem, ShouldEqual, "engagement")
				So(manager.histogramBuckets, ShouldResemble, prometheus.DefBuckets)
			})
		})
	})
}

func TestMetricsRecording(t *testing.T) {
	Convey("Given the global recorders", t, func() {
		Convey("When recording summaries", func() {
			before := testutil.ToFloat64(globalManager.summariesComputed)
			RecordSummariesComputed(3)

			Convey("Then the counter grows by the batch size", func() {
				So(testutil.ToFloat64(globalManager.summariesComputed), ShouldEqual, before+3)
			})
		})

		Convey("When recording invalid records", func() {
			c := globalManager.invalidRecords.WithLabelValues("ratings")
			before := testutil.ToFloat64(c)
			RecordInvalidRecords("ratings", 2)
			RecordInvalidRecords("ratings", 0)

			Convey("Then only positive counts are added", func() {
				So(testutil.ToFloat64(c), ShouldEqual, before+2)
			})
		})

		Convey("When recording collection cycles", func() {
			c := globalManager.collectionCycles.WithLabelValues(CycleFired)
			before := testutil.ToFloat64(c)
			RecordCollectionCycle(CycleFired)

			Convey("Then the outcome label is incremented", func() {
				So(testutil.ToFloat64(c), ShouldEqual, before+1)
			})
		})

		Convey("When setting gauges", func() {
			UpdateQueueSize(7)
			UpdateStudentsTracked(12)

			Convey("Then they reflect the last value", func() {
				So(testutil.ToFloat64(globalManager.queueSize), ShouldEqual, 7)
				So(testutil.ToFloat64(globalManager.studentsTracked), ShouldEqual, 12)
			})
		})

		Convey("Then the remaining recorders do not panic", func() {
			So(func() {
				RecordSummaryLatency(1.5)
				RecordRatingAccepted()
				RecordRatingDuplicate()
				RecordRatingAppended()
				RecordRatingFailed()
				UpdateQueueCapacity(10)
				UpdateWorkerCount(2)
				RecordNotificationSent()
				RecordNotificationFailure()
				RecordHTTPRequest("dashboard", "GET", "200")
				RecordHTTPRequestDuration("dashboard", "GET", "200", 3)
				RecordErrorByComponent("worker", "append_error")
			}, ShouldNotPanic)
			So(GetRegistry(), ShouldNotBeNil)
		})
	})
}
