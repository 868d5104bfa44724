package rating_test

import (
	"testing"

	"github.com/okian/logoduel/internal/domain/model"
	rating "github.com/okian/logoduel/internal/domain/rating"
	. "github.com/smartystreets/goconvey/convey"
)

func TestEngine_ProduceMatchup(t *testing.T) {
	Convey("Given a default engine", t, func() {
		engine := rating.NewEngine()

		Convey("When the roster has fewer than two logos", func() {
			Convey("Then no matchup is produced", func() {
				So(engine.ProduceMatchup(nil, nil, nil), ShouldBeNil)
				So(engine.ProduceMatchup([]string{"only"}, nil, nil), ShouldBeNil)
			})
		})

		Convey("When one logo has played fewer matches than the rest", func() {
			entries := map[string]model.RatingEntry{
				"alpha": {Rating: 1520, Matches: 5},
				"beta":  {Rating: 1480, Matches: 5},
				"gamma": {Rating: 1500, Matches: 1},
			}
			pair := engine.ProduceMatchup([]string{"alpha", "beta", "gamma"}, entries, nil)

			Convey("Then the least-exposed logo is the primary", func() {
				So(pair, ShouldNotBeNil)
				So(pair.A, ShouldEqual, "gamma")
			})

			Convey("Then the challenger is the one closest in rating", func() {
				// 1520 and 1480 are both 20 away; beta has equal matches
				// so the id tie-break picks alpha.
				So(pair.B, ShouldEqual, "alpha")
			})
		})

		Convey("When every logo is fresh", func() {
			pair := engine.ProduceMatchup([]string{"c", "a", "b"}, nil, nil)

			Convey("Then selection falls back to id order", func() {
				So(pair, ShouldNotBeNil)
				So(pair.A, ShouldEqual, "a")
				So(pair.B, ShouldEqual, "b")
			})
		})

		Convey("When the best pairing equals the previous one", func() {
			roster := []string{"a", "b", "c"}
			previous := &rating.Pair{A: "a", B: "b"}
			pair := engine.ProduceMatchup(roster, nil, previous)

			Convey("Then the next-best challenger is chosen", func() {
				So(pair, ShouldNotBeNil)
				So(pair.SameUnordered(*previous), ShouldBeFalse)
				So(pair.A, ShouldEqual, "a")
				So(pair.B, ShouldEqual, "c")
			})

			Convey("And the order of the previous pair does not matter", func() {
				swapped := engine.ProduceMatchup(roster, nil, &rating.Pair{A: "b", B: "a"})
				So(swapped.SameUnordered(*previous), ShouldBeFalse)
			})
		})

		Convey("When only one pairing exists", func() {
			previous := &rating.Pair{A: "a", B: "b"}
			pair := engine.ProduceMatchup([]string{"a", "b"}, nil, previous)

			Convey("Then the repeat is served rather than nothing", func() {
				So(pair, ShouldNotBeNil)
				So(pair.SameUnordered(*previous), ShouldBeTrue)
			})
		})
	})
}

func TestPair_SameUnordered(t *testing.T) {
	Convey("Given two pairs", t, func() {
		Convey("Then comparison ignores order", func() {
			So(rating.Pair{A: "x", B: "y"}.SameUnordered(rating.Pair{A: "y", B: "x"}), ShouldBeTrue)
			So(rating.Pair{A: "x", B: "y"}.SameUnordered(rating.Pair{A: "x", B: "y"}), ShouldBeTrue)
			So(rating.Pair{A: "x", B: "y"}.SameUnordered(rating.Pair{A: "x", B: "z"}), ShouldBeFalse)
		})
	})
}
