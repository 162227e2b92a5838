package params_test

import (
	"net/url"
	"testing"

	"github.com/smartystreets/goconvey/convey"

	"venuedir/internal/params"
)

func TestParsePagination(t *testing.T) {
	parse := func(raw string) params.Pagination {
		q, _ := url.ParseQuery(raw)
		return params.ParsePagination(q)
	}

	convey.Convey("Given query string pagination", t, func() {
		convey.Convey("An empty query yields the defaults", func() {
			p := parse("")
			convey.So(p.Limit, convey.ShouldEqual, 20)
			convey.So(p.Page, convey.ShouldEqual, 1)
			convey.So(p.Offset, convey.ShouldEqual, 0)
		})

		convey.Convey("Explicit values are honored", func() {
			p := parse("limit=10&page=3")
			convey.So(p.Limit, convey.ShouldEqual, 10)
			convey.So(p.Page, convey.ShouldEqual, 3)
			convey.So(p.Offset, convey.ShouldEqual, 20)
		})

		convey.Convey("The limit is capped", func() {
			p := parse("limit=500")
			convey.So(p.Limit, convey.ShouldEqual, 50)
		})

		convey.Convey("Malformed values fall back to defaults", func() {
			p := parse("limit=banana&page=-2")
			convey.So(p.Limit, convey.ShouldEqual, 20)
			convey.So(p.Page, convey.ShouldEqual, 1)
		})

		convey.Convey("A non-positive limit falls back", func() {
			p := parse("limit=0")
			convey.So(p.Limit, convey.ShouldEqual, 20)
		})
	})
}

func TestComputeMeta(t *testing.T) {
	convey.Convey("Given a parsed page", t, func() {
		q, _ := url.ParseQuery("limit=10&page=2")
		p := params.ParsePagination(q)

		convey.Convey("When the total lands mid-list", func() {
			p.ComputeMeta(35)

			convey.So(p.Total, convey.ShouldEqual, 35)
			convey.So(p.TotalPages, convey.ShouldEqual, 4)
			convey.So(p.HasPrev, convey.ShouldBeTrue)
			convey.So(p.HasNext, convey.ShouldBeTrue)
		})

		convey.Convey("When the page is the last one", func() {
			p.ComputeMeta(20)

			convey.So(p.TotalPages, convey.ShouldEqual, 2)
			convey.So(p.HasNext, convey.ShouldBeFalse)
		})

		convey.Convey("When there are no rows at all", func() {
			p.ComputeMeta(0)

			convey.So(p.TotalPages, convey.ShouldEqual, 0)
			convey.So(p.HasNext, convey.ShouldBeFalse)
		})
	})
}
