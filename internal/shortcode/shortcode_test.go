package shortcode_test

import (
	"testing"

	"github.com/smartystreets/goconvey/convey"

	"venuedir/internal/shortcode"
)

func TestCodec(t *testing.T) {
	convey.Convey("Given a shortcode codec", t, func() {
		codec, err := shortcode.New("test-salt")
		convey.So(err, convey.ShouldBeNil)

		convey.Convey("Codes round-trip to the original id", func() {
			for _, id := range []int64{1, 42, 999999} {
				code, err := codec.Encode(id)
				convey.So(err, convey.ShouldBeNil)
				convey.So(len(code), convey.ShouldBeGreaterThanOrEqualTo, 6)

				got, err := codec.Decode(code)
				convey.So(err, convey.ShouldBeNil)
				convey.So(got, convey.ShouldEqual, id)
			}
		})

		convey.Convey("Adjacent ids produce unrelated codes", func() {
			a, _ := codec.Encode(100)
			b, _ := codec.Encode(101)
			convey.So(a, convey.ShouldNotEqual, b)
		})

		convey.Convey("A different salt decodes to an error, not a wrong id", func() {
			other, err := shortcode.New("other-salt")
			convey.So(err, convey.ShouldBeNil)

			code, _ := codec.Encode(42)
			_, err = other.Decode(code)
			convey.So(err, convey.ShouldNotBeNil)
		})

		convey.Convey("Garbage input fails to decode", func() {
			_, err := codec.Decode("!!!")
			convey.So(err, convey.ShouldNotBeNil)
		})
	})
}
