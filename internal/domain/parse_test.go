package domain_test

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/nagriksetu/report-service/internal/domain"
)

func TestParseCategory(t *testing.T) {
	Convey("Given category parsing", t, func() {
		Convey("Wire values resolve", func() {
			for _, known := range domain.KnownCategories {
				parsed, ok := domain.ParseCategory(string(known))
				So(ok, ShouldBeTrue)
				So(parsed, ShouldEqual, known)
			}
		})

		Convey("Human labels from the reporting UI resolve", func() {
			cases := map[string]domain.TicketCategory{
				"Pothole":       domain.CategoryPothole,
				"Garbage Pile":  domain.CategoryGarbage,
				"Water Leakage": domain.CategoryWaterLeak,
				"Street Light":  domain.CategoryStreetLight,
			}
			for label, want := range cases {
				parsed, ok := domain.ParseCategory(label)
				So(ok, ShouldBeTrue)
				So(parsed, ShouldEqual, want)
			}
		})

		Convey("Unknown labels are rejected", func() {
			_, ok := domain.ParseCategory("Broken Bench")
			So(ok, ShouldBeFalse)
			_, ok = domain.ParseCategory("")
			So(ok, ShouldBeFalse)
		})
	})
}

func TestParseStatus(t *testing.T) {
	Convey("Given status parsing", t, func() {
		Convey("Labels with spaces resolve case-insensitively", func() {
			parsed, ok := domain.ParseStatus("In Progress")
			So(ok, ShouldBeTrue)
			So(parsed, ShouldEqual, domain.TicketStatusInProgress)

			parsed, ok = domain.ParseStatus("resolved")
			So(ok, ShouldBeTrue)
			So(parsed, ShouldEqual, domain.TicketStatusResolved)
		})

		Convey("Unknown statuses are rejected", func() {
			_, ok := domain.ParseStatus("Archived")
			So(ok, ShouldBeFalse)
		})
	})
}
