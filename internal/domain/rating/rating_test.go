package rating_test

import (
	"testing"

	"github.com/okian/logoduel/internal/domain/model"
	rating "github.com/okian/logoduel/internal/domain/rating"
	. "github.com/smartystreets/goconvey/convey"
)

func TestEngine_ApplyMatch(t *testing.T) {
	Convey("Given a default engine", t, func() {
		engine := rating.NewEngine()

		Convey("When two fresh logos play their first match", func() {
			state := engine.ApplyMatch(model.NewRatingState(), model.MatchRecord{
				WinnerID:  "alpha",
				LoserID:   "beta",
				Timestamp: 1700000000000,
			})

			Convey("Then the winner gains half the K factor and the loser loses it", func() {
				So(state.Entries["alpha"].Rating, ShouldAlmostEqual, 1516, 1e-9)
				So(state.Entries["beta"].Rating, ShouldAlmostEqual, 1484, 1e-9)
			})

			Convey("Then tallies are updated on both sides", func() {
				So(state.Entries["alpha"].Wins, ShouldEqual, 1)
				So(state.Entries["alpha"].Losses, ShouldEqual, 0)
				So(state.Entries["alpha"].Matches, ShouldEqual, 1)
				So(state.Entries["beta"].Wins, ShouldEqual, 0)
				So(state.Entries["beta"].Losses, ShouldEqual, 1)
				So(state.Entries["beta"].Matches, ShouldEqual, 1)
			})

			Convey("Then the match is prepended to the history", func() {
				So(state.History, ShouldHaveLength, 1)
				So(state.History[0].WinnerID, ShouldEqual, "alpha")
				So(state.LastMatchAt(), ShouldEqual, 1700000000000)
			})
		})

		Convey("When many matches are applied", func() {
			state := model.NewRatingState()
			for i := 0; i < 50; i++ {
				winner, loser := "alpha", "beta"
				if i%3 == 0 {
					winner, loser = loser, winner
				}
				state = engine.ApplyMatch(state, model.MatchRecord{
					WinnerID:  winner,
					LoserID:   loser,
					Timestamp: int64(1700000000000 + i),
				})
			}

			Convey("Then the rating pool stays zero-sum", func() {
				total := 0.0
				for _, entry := range state.Entries {
					total += entry.Rating
				}
				So(total, ShouldAlmostEqual, 2*model.DefaultRating, 1e-6)
			})
		})

		Convey("When the input state is reused after applying a match", func() {
			before := model.NewRatingState()
			before.Entries["alpha"] = model.RatingEntry{Rating: 1600, Wins: 3, Matches: 3}
			after := engine.ApplyMatch(before, model.MatchRecord{
				WinnerID:  "beta",
				LoserID:   "alpha",
				Timestamp: 1700000000001,
			})

			Convey("Then the original state is untouched", func() {
				So(before.Entries["alpha"].Rating, ShouldEqual, 1600)
				So(before.History, ShouldBeEmpty)
				So(after.Entries["alpha"].Rating, ShouldBeLessThan, 1600)
			})
		})

		Convey("When the winner is far stronger than the loser", func() {
			state := model.NewRatingState()
			state.Entries["strong"] = model.RatingEntry{Rating: 2000}
			state.Entries["weak"] = model.RatingEntry{Rating: 1200}
			next := engine.ApplyMatch(state, model.MatchRecord{
				WinnerID:  "strong",
				LoserID:   "weak",
				Timestamp: 1700000000002,
			})

			Convey("Then the transfer is small", func() {
				gain := next.Entries["strong"].Rating - 2000
				So(gain, ShouldBeGreaterThan, 0)
				So(gain, ShouldBeLessThan, 1)
				So(next.Entries["weak"].Rating, ShouldAlmostEqual, 1200-gain, 1e-9)
			})
		})
	})

	Convey("Given an engine with a small history limit", t, func() {
		engine := rating.NewEngine(rating.WithHistoryLimit(3))

		Convey("When more matches than the limit are applied", func() {
			state := model.NewRatingState()
			for i := 0; i < 5; i++ {
				state = engine.ApplyMatch(state, model.MatchRecord{
					WinnerID:  "alpha",
					LoserID:   "beta",
					Timestamp: int64(i + 1),
				})
			}

			Convey("Then only the newest records are retained, newest first", func() {
				So(state.MatchCount(), ShouldEqual, 3)
				So(state.History[0].Timestamp, ShouldEqual, 5)
				So(state.History[2].Timestamp, ShouldEqual, 3)
			})

			Convey("Then tallies still count every match", func() {
				So(state.Entries["alpha"].Matches, ShouldEqual, 5)
			})
		})
	})
}

func TestEngine_EnsureEntries(t *testing.T) {
	Convey("Given a state missing some roster logos", t, func() {
		engine := rating.NewEngine()
		state := model.NewRatingState()
		state.Entries["alpha"] = model.RatingEntry{Rating: 1550, Wins: 2, Matches: 2}

		Convey("When ensuring the roster", func() {
			next, changed := engine.EnsureEntries(state, []string{"alpha", "beta", "gamma"})

			Convey("Then missing logos get default entries", func() {
				So(changed, ShouldBeTrue)
				So(next.Entries, ShouldHaveLength, 3)
				So(next.Entries["beta"], ShouldResemble, model.NewRatingEntry())
				So(next.Entries["gamma"], ShouldResemble, model.NewRatingEntry())
			})

			Convey("Then existing entries are preserved", func() {
				So(next.Entries["alpha"].Rating, ShouldEqual, 1550)
			})

			Convey("And ensuring again reports no change", func() {
				again, changedAgain := engine.EnsureEntries(next, []string{"alpha", "beta", "gamma"})
				So(changedAgain, ShouldBeFalse)
				So(again.Entries, ShouldHaveLength, 3)
			})
		})
	})
}

func TestEngine_PruneEntries(t *testing.T) {
	Convey("Given a state with a logo no longer on the roster", t, func() {
		engine := rating.NewEngine()
		state := engine.ApplyMatch(model.NewRatingState(), model.MatchRecord{
			WinnerID: "alpha", LoserID: "retired", Timestamp: 10,
		})
		state = engine.ApplyMatch(state, model.MatchRecord{
			WinnerID: "alpha", LoserID: "beta", Timestamp: 20,
		})

		Convey("When pruning to the active roster", func() {
			next, changed := engine.PruneEntries(state, []string{"alpha", "beta"})

			Convey("Then the retired entry and its matches are dropped", func() {
				So(changed, ShouldBeTrue)
				So(next.Entries, ShouldNotContainKey, "retired")
				So(next.Entries, ShouldHaveLength, 2)
				So(next.MatchCount(), ShouldEqual, 1)
				So(next.History[0].Timestamp, ShouldEqual, 20)
			})

			Convey("And pruning again reports no change", func() {
				_, changedAgain := engine.PruneEntries(next, []string{"alpha", "beta"})
				So(changedAgain, ShouldBeFalse)
			})
		})
	})
}

func TestEngine_Replay(t *testing.T) {
	Convey("Given a shuffled set of match records", t, func() {
		engine := rating.NewEngine()
		matches := []model.MatchRecord{
			{WinnerID: "beta", LoserID: "alpha", Timestamp: 30},
			{WinnerID: "alpha", LoserID: "beta", Timestamp: 10},
			{WinnerID: "alpha", LoserID: "gamma", Timestamp: 20},
		}

		Convey("When sorted and replayed", func() {
			rating.SortMatches(matches)
			replayed := engine.Replay(matches)

			Convey("Then the sort is by timestamp", func() {
				So(matches[0].Timestamp, ShouldEqual, 10)
				So(matches[2].Timestamp, ShouldEqual, 30)
			})

			Convey("Then the replay matches applying the same matches in order", func() {
				expected := model.NewRatingState()
				for _, m := range matches {
					expected = engine.ApplyMatch(expected, m)
				}
				So(replayed.Entries, ShouldResemble, expected.Entries)
				So(replayed.History, ShouldResemble, expected.History)
			})
		})
	})

	Convey("Given records equal in every field but the voter hash", t, func() {
		matches := []model.MatchRecord{
			{WinnerID: "a", LoserID: "b", Timestamp: 10, VoterHash: "z9"},
			{WinnerID: "a", LoserID: "b", Timestamp: 10, VoterHash: "a1"},
		}

		Convey("When sorted", func() {
			rating.SortMatches(matches)

			Convey("Then the voter hash breaks the tie", func() {
				So(matches[0].VoterHash, ShouldEqual, "a1")
			})
		})
	})
}

func TestValidateMatch(t *testing.T) {
	Convey("Given match records with missing or bad fields", t, func() {
		Convey("Then validation rejects each defect", func() {
			So(rating.ValidateMatch(model.MatchRecord{LoserID: "b", Timestamp: 1}), ShouldEqual, rating.ErrMissingWinner)
			So(rating.ValidateMatch(model.MatchRecord{WinnerID: "a", Timestamp: 1}), ShouldEqual, rating.ErrMissingLoser)
			So(rating.ValidateMatch(model.MatchRecord{WinnerID: "a", LoserID: "a", Timestamp: 1}), ShouldEqual, rating.ErrSelfMatch)
			So(rating.ValidateMatch(model.MatchRecord{WinnerID: "a", LoserID: "b"}), ShouldEqual, rating.ErrBadTimestamp)
		})

		Convey("And a complete record passes", func() {
			So(rating.ValidateMatch(model.MatchRecord{WinnerID: "a", LoserID: "b", Timestamp: 1}), ShouldBeNil)
		})
	})
}
