package geo_test

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/cabina-live/cabina/internal/domain/geo"
)

func TestDistance(t *testing.T) {
	Convey("Given the haversine distance function", t, func() {
		Convey("When both points are identical", func() {
			d := geo.Distance(40.4168, -3.7038, 40.4168, -3.7038)

			Convey("Then the distance should be zero", func() {
				So(d, ShouldEqual, 0)
			})
		})

		Convey("When the points are well-known cities", func() {
			// Madrid to Barcelona, roughly 505 km great-circle.
			d := geo.Distance(40.4168, -3.7038, 41.3874, 2.1686)

			Convey("Then the distance should match the known value", func() {
				So(d, ShouldBeGreaterThan, 500)
				So(d, ShouldBeLessThan, 510)
			})
		})

		Convey("When the points are swapped", func() {
			d1 := geo.Distance(40.4168, -3.7038, 41.3874, 2.1686)
			d2 := geo.Distance(41.3874, 2.1686, 40.4168, -3.7038)

			Convey("Then the distance should be symmetric", func() {
				So(d1, ShouldAlmostEqual, d2, 1e-9)
			})
		})

		Convey("When the points are close together", func() {
			// Two points ~111 m apart along a meridian.
			d := geo.Distance(40.0000, -3.0000, 40.0010, -3.0000)

			Convey("Then the distance should be around a tenth of a kilometer", func() {
				So(d, ShouldBeGreaterThan, 0.10)
				So(d, ShouldBeLessThan, 0.12)
			})
		})
	})
}

func TestVerify(t *testing.T) {
	Convey("Given a 1 km geofence around a venue", t, func() {
		originLat, originLon := 40.4168, -3.7038

		Convey("When the submitter is at the venue", func() {
			ok := geo.Verify(originLat, originLon, originLat, originLon, 1)

			Convey("Then verification should pass", func() {
				So(ok, ShouldBeTrue)
			})
		})

		Convey("When the submitter is a few hundred meters away", func() {
			ok := geo.Verify(40.4190, -3.7038, originLat, originLon, 1)

			Convey("Then verification should pass", func() {
				So(ok, ShouldBeTrue)
			})
		})

		Convey("When the submitter is about 10 km away", func() {
			// ~0.09° of latitude is ~10 km.
			ok := geo.Verify(40.5068, -3.7038, originLat, originLon, 1)

			Convey("Then verification should fail", func() {
				So(ok, ShouldBeFalse)
			})
		})

		Convey("When the submitter is in another city", func() {
			ok := geo.Verify(41.3874, 2.1686, originLat, originLon, 1)

			Convey("Then verification should fail", func() {
				So(ok, ShouldBeFalse)
			})
		})

		Convey("When the radius is widened to cover the submitter", func() {
			ok := geo.Verify(41.3874, 2.1686, originLat, originLon, 600)

			Convey("Then verification should pass", func() {
				So(ok, ShouldBeTrue)
			})
		})
	})
}
