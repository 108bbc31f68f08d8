package quota_test

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/cabina-live/cabina/internal/domain/model"
	"github.com/cabina-live/cabina/internal/domain/quota"
)

func TestPolicy(t *testing.T) {
	Convey("Given a policy with default limits", t, func() {
		p := quota.NewPolicy()

		Convey("When looking up tier1", func() {
			max, bounded := p.MaxRequests(model.Tier1)

			Convey("Then the limit should be 50", func() {
				So(bounded, ShouldBeTrue)
				So(max, ShouldEqual, 50)
			})
		})

		Convey("When looking up tier2", func() {
			max, bounded := p.MaxRequests(model.Tier2)

			Convey("Then the limit should be 100", func() {
				So(bounded, ShouldBeTrue)
				So(max, ShouldEqual, 100)
			})
		})

		Convey("When looking up tier3", func() {
			_, bounded := p.MaxRequests(model.Tier3)

			Convey("Then there should be no limit", func() {
				So(bounded, ShouldBeFalse)
			})
		})

		Convey("When looking up an unrecognized tier", func() {
			_, bounded := p.MaxRequests(model.Tier("something-new"))

			Convey("Then there should be no limit", func() {
				So(bounded, ShouldBeFalse)
			})
		})
	})

	Convey("Given a policy with overrides", t, func() {
		Convey("When a tier limit is raised", func() {
			p := quota.NewPolicy(quota.WithLimit(model.Tier1, 75))
			max, bounded := p.MaxRequests(model.Tier1)

			Convey("Then the override should apply", func() {
				So(bounded, ShouldBeTrue)
				So(max, ShouldEqual, 75)
			})
		})

		Convey("When a tier limit is removed with a non-positive max", func() {
			p := quota.NewPolicy(quota.WithLimit(model.Tier1, 0))
			_, bounded := p.MaxRequests(model.Tier1)

			Convey("Then the tier should become unbounded", func() {
				So(bounded, ShouldBeFalse)
			})
		})

		Convey("When a previously unbounded tier is given a limit", func() {
			p := quota.NewPolicy(quota.WithLimit(model.Tier3, 10))
			max, bounded := p.MaxRequests(model.Tier3)

			Convey("Then the tier should become bounded", func() {
				So(bounded, ShouldBeTrue)
				So(max, ShouldEqual, 10)
			})
		})
	})
}
