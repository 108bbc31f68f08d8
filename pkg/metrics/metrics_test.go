package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMetricsOptions(t *testing.T) {
	Convey("Given metrics options", t, func() {
		Convey("When creating options", func() {
			namespaceOpt := WithNamespace("test-namespace")
			subsystemOpt := WithSubsystem("test-subsystem")
			histogramBucketsOpt := WithHistogramBuckets([]float64{0.1, 0.5, 1.0})
			registryOpt := WithRegistry(prometheus.NewRegistry())

			Convey("Then they should be valid functions", func() {
				So(namespaceOpt, ShouldNotBeNil)
				So(subsystemOpt, ShouldNotBeNil)
				So(histogramBucketsOpt, ShouldNotBeNil)
				So(registryOpt, ShouldNotBeNil)
			})
		})
	})
}

func TestManagerCreation(t *testing.T) {
	Convey("Given manager creation", t, func() {
		Convey("When creating with default options", func() {
			m := NewManager(WithRegistry(prometheus.NewRegistry()))

			Convey("Then it should be created successfully", func() {
				So(m, ShouldNotBeNil)
			})
		})

		Convey("When creating with custom options", func() {
			m := NewManager(
				WithNamespace("test-namespace"),
				WithSubsystem("test-subsystem"),
				WithHistogramBuckets([]float64{1, 5, 10}),
				WithRegistry(prometheus.NewRegistry()),
			)

			Convey("Then it should be created successfully", func() {
				So(m, ShouldNotBeNil)
			})
		})
	})
}

func TestGlobalHelpers(t *testing.T) {
	Convey("Given the global manager", t, func() {
		Convey("When recording through the package helpers", func() {
			Convey("Then none of them should panic", func() {
				So(func() {
					RecordSubmissionAccepted("created")
					RecordSubmissionAccepted("merged")
					RecordSubmissionRejected("rate_limited")
					RecordPromptStarted()
					RecordPromptResolved("collaborate")
					RecordPromptExpired()
					UpdateBoardSubscribers(3)
					UpdateTrackedRequests(10)
					RecordSnapshotCoalesced()
					RecordStoreLatency(1.5)
					RecordStoreError()
					RecordCatalogRequest()
					RecordCatalogError()
					RecordCatalogLatency(20)
					RecordHTTPRequest("submit", "POST", "201")
					RecordHTTPRequestDuration("submit", "POST", "201", 12)
				}, ShouldNotPanic)
			})
		})

		Convey("When fetching the registry", func() {
			Convey("Then it should gather without error", func() {
				reg := GetRegistry()
				So(reg, ShouldNotBeNil)

				families, err := reg.Gather()
				So(err, ShouldBeNil)
				So(len(families), ShouldBeGreaterThan, 0)
			})
		})
	})
}
