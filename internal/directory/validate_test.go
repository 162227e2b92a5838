package directory

import (
	"strings"
	"testing"
	"time"

	"github.com/smartystreets/goconvey/convey"
)

func strPtr(s string) *string { return &s }

func TestValidateSocials(t *testing.T) {
	convey.Convey("Given social link validation", t, func() {
		convey.Convey("All-nil links are fine", func() {
			convey.So(validateSocials(nil, nil, nil), convey.ShouldBeNil)
		})

		convey.Convey("Empty strings are treated as absent", func() {
			convey.So(validateSocials(strPtr(""), strPtr(""), strPtr("")), convey.ShouldBeNil)
		})

		convey.Convey("Valid links pass", func() {
			err := validateSocials(
				strPtr("https://facebook.com/bluenote"),
				strPtr("https://instagram.com/bluenote"),
				strPtr("+12125551234"),
			)
			convey.So(err, convey.ShouldBeNil)
		})

		convey.Convey("A facebook link without the domain is rejected", func() {
			err := validateSocials(strPtr("https://example.com/bluenote"), nil, nil)
			convey.So(err, convey.ShouldNotBeNil)
			convey.So(err.Error(), convey.ShouldContainSubstring, "facebook")
		})

		convey.Convey("An instagram link without the domain is rejected", func() {
			err := validateSocials(nil, strPtr("https://twitter.com/bluenote"), nil)
			convey.So(err, convey.ShouldNotBeNil)
			convey.So(err.Error(), convey.ShouldContainSubstring, "instagram")
		})

		convey.Convey("A whatsapp number without the + prefix is rejected", func() {
			err := validateSocials(nil, nil, strPtr("12125551234"))
			convey.So(err, convey.ShouldNotBeNil)
			convey.So(err.Error(), convey.ShouldContainSubstring, "whatsapp")
		})
	})
}

func TestValidateTicketURL(t *testing.T) {
	convey.Convey("Given ticket URL validation", t, func() {
		convey.Convey("Absolute http(s) URLs pass", func() {
			convey.So(validateTicketURL("https://tickets.example.com/ev/1"), convey.ShouldBeNil)
			convey.So(validateTicketURL("http://tickets.example.com"), convey.ShouldBeNil)
		})

		convey.Convey("Relative URLs are rejected", func() {
			convey.So(validateTicketURL("/ev/1"), convey.ShouldNotBeNil)
		})

		convey.Convey("Non-http schemes are rejected", func() {
			convey.So(validateTicketURL("ftp://tickets.example.com"), convey.ShouldNotBeNil)
			convey.So(validateTicketURL("javascript:alert(1)"), convey.ShouldNotBeNil)
		})

		convey.Convey("Garbage is rejected", func() {
			convey.So(validateTicketURL("not a url"), convey.ShouldNotBeNil)
		})
	})
}

func TestValidateAddEvent(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	future := now.Add(48 * time.Hour).Format(time.RFC3339)

	valid := AddEventInput{
		Title:       "Jazz Night",
		Description: "Live quartet",
		DateRaw:     future,
		Category:    "music",
		Price:       25,
	}

	convey.Convey("Given a complete, valid event input", t, func() {
		date, err := validateAddEvent(valid, now)

		convey.So(err, convey.ShouldBeNil)
		convey.So(date.After(now), convey.ShouldBeTrue)
	})

	convey.Convey("Given invalid variations", t, func() {
		cases := []struct {
			name   string
			mutate func(*AddEventInput)
			field  string
		}{
			{"blank title", func(in *AddEventInput) { in.Title = "   " }, "title"},
			{"blank description", func(in *AddEventInput) { in.Description = "" }, "description"},
			{"blank category", func(in *AddEventInput) { in.Category = "" }, "category"},
			{"unparseable date", func(in *AddEventInput) { in.DateRaw = "next tuesday" }, "date"},
			{"past date", func(in *AddEventInput) { in.DateRaw = now.Add(-time.Hour).Format(time.RFC3339) }, "date"},
			{"negative price", func(in *AddEventInput) { in.Price = -1 }, "price"},
			{"zero duration", func(in *AddEventInput) { d := 0.0; in.Duration = &d }, "duration"},
			{"bad ticket url", func(in *AddEventInput) { in.TicketURL = strPtr("nope") }, "ticket_url"},
		}

		for _, tc := range cases {
			tc := tc
			convey.Convey("Then "+tc.name+" is rejected", func() {
				in := valid
				tc.mutate(&in)

				_, err := validateAddEvent(in, now)
				convey.So(err, convey.ShouldNotBeNil)

				var vErr *ValidationError
				convey.So(err, convey.ShouldHaveSameTypeAs, vErr)
				convey.So(err.(*ValidationError).Field, convey.ShouldEqual, tc.field)
			})
		}
	})

	convey.Convey("Given a date exactly at now", t, func() {
		in := valid
		in.DateRaw = now.Format(time.RFC3339)

		_, err := validateAddEvent(in, now)
		convey.So(err, convey.ShouldNotBeNil)
	})
}

func TestRoundPrice(t *testing.T) {
	convey.Convey("Given prices with excess precision", t, func() {
		convey.So(roundPrice(25.999), convey.ShouldEqual, 26.0)
		convey.So(roundPrice(25.994), convey.ShouldEqual, 25.99)
		convey.So(roundPrice(0), convey.ShouldEqual, 0.0)
		convey.So(roundPrice(10.5), convey.ShouldEqual, 10.5)
	})
}

func TestLatLngValid(t *testing.T) {
	convey.Convey("Given coordinate validation", t, func() {
		convey.So(LatLng{Lat: 40.7, Lng: -74.0}.Valid(), convey.ShouldBeTrue)
		convey.So(LatLng{Lat: -90, Lng: 180}.Valid(), convey.ShouldBeTrue)

		convey.Convey("The zero pair is treated as missing", func() {
			convey.So(LatLng{}.Valid(), convey.ShouldBeFalse)
		})

		convey.Convey("Out-of-range values are rejected", func() {
			convey.So(LatLng{Lat: 91, Lng: 0}.Valid(), convey.ShouldBeFalse)
			convey.So(LatLng{Lat: 0, Lng: -181}.Valid(), convey.ShouldBeFalse)
		})
	})
}

func TestPlanPhotos(t *testing.T) {
	upload := func(name string) *Upload {
		return &Upload{File: strings.NewReader("img"), Filename: name}
	}

	convey.Convey("Given a stored photo list", t, func() {
		current := []string{"u1", "u2", "u3"}

		convey.Convey("When the incoming list keeps a subset and adds files", func() {
			plan := planPhotos(current, []PhotoEntry{
				{Kind: PhotoExisting, URL: "u3"},
				{Kind: PhotoExisting, URL: "u1"},
				{Kind: PhotoNew, Upload: upload("new.jpg")},
			})

			convey.Convey("Then kept URLs preserve the incoming order", func() {
				convey.So(plan.Keep, convey.ShouldResemble, []string{"u3", "u1"})
			})
			convey.Convey("Then the missing URL is dropped", func() {
				convey.So(plan.Drop, convey.ShouldResemble, []string{"u2"})
			})
			convey.Convey("Then the new file is queued for upload", func() {
				convey.So(plan.Uploads, convey.ShouldHaveLength, 1)
				convey.So(plan.Uploads[0].Filename, convey.ShouldEqual, "new.jpg")
			})
		})

		convey.Convey("When an incoming URL was never stored", func() {
			plan := planPhotos(current, []PhotoEntry{
				{Kind: PhotoExisting, URL: "u1"},
				{Kind: PhotoExisting, URL: "https://evil.example.com/foreign.jpg"},
			})

			convey.Convey("Then the foreign URL is ignored, not adopted", func() {
				convey.So(plan.Keep, convey.ShouldResemble, []string{"u1"})
			})
		})

		convey.Convey("When a kept URL repeats", func() {
			plan := planPhotos(current, []PhotoEntry{
				{Kind: PhotoExisting, URL: "u1"},
				{Kind: PhotoExisting, URL: "u1"},
			})

			convey.Convey("Then it is deduplicated", func() {
				convey.So(plan.Keep, convey.ShouldResemble, []string{"u1"})
			})
		})

		convey.Convey("When the incoming list is empty", func() {
			plan := planPhotos(current, nil)

			convey.Convey("Then every stored photo is dropped", func() {
				convey.So(plan.Keep, convey.ShouldBeEmpty)
				convey.So(plan.Drop, convey.ShouldResemble, []string{"u1", "u2", "u3"})
			})
		})

		convey.Convey("When a new entry carries no file", func() {
			plan := planPhotos(current, []PhotoEntry{{Kind: PhotoNew}})

			convey.Convey("Then it contributes nothing", func() {
				convey.So(plan.Uploads, convey.ShouldBeEmpty)
			})
		})
	})
}
