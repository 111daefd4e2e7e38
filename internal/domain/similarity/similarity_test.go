package similarity_test

import (
	"testing"

	"github.com/okian/rollcall/internal/domain/similarity"
	"github.com/smartystreets/goconvey/convey"
)

func TestRatio(t *testing.T) {
	convey.Convey("Given pairs of OCR names", t, func() {
		convey.Convey("Then identical strings score 100", func() {
			convey.So(similarity.Ratio("HopOnYourRoof", "HopOnYourRoof"), convey.ShouldEqual, 100)
			convey.So(similarity.Ratio("", ""), convey.ShouldEqual, 100)
		})

		convey.Convey("Then case and padding are ignored", func() {
			convey.So(similarity.Ratio(" hoponyourroof", "HopOnYourRoof "), convey.ShouldEqual, 100)
		})

		convey.Convey("Then a single misread letter stays above the match threshold", func() {
			r := similarity.Ratio("HopOnYourRoot", "HopOnYourRoof")
			convey.So(r, convey.ShouldAlmostEqual, 92.307, 0.01)
		})

		convey.Convey("Then unrelated names score low", func() {
			convey.So(similarity.Ratio("Foo", "Zzyzx"), convey.ShouldBeLessThan, 30)
			convey.So(similarity.Ratio("Foo", ""), convey.ShouldEqual, 0)
		})

		convey.Convey("Then the score is symmetric", func() {
			convey.So(similarity.Ratio("[DOA]Bar", "[D0A]Baz"), convey.ShouldEqual, similarity.Ratio("[D0A]Baz", "[DOA]Bar"))
		})
	})

	convey.Convey("Given values to round", t, func() {
		convey.So(similarity.Round2(1.2000000000000002), convey.ShouldEqual, 1.2)
		convey.So(similarity.Round2(0.876), convey.ShouldEqual, 0.88)
	})
}
