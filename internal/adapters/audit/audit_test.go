package audit_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	audit "github.com/okian/logoduel/internal/adapters/audit"
	"github.com/okian/logoduel/internal/domain/model"
	"github.com/okian/logoduel/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	// Initialize logging for tests
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

func voteEvent(winner, loser string, ts int64) model.AuditEvent {
	return model.VoteRecorded{
		Match:         model.MatchRecord{WinnerID: winner, LoserID: loser, Timestamp: ts},
		WinnerBefore:  model.NewRatingEntry(),
		WinnerAfter:   model.RatingEntry{Rating: 1516, Wins: 1, Matches: 1},
		LoserBefore:   model.NewRatingEntry(),
		LoserAfter:    model.RatingEntry{Rating: 1484, Losses: 1, Matches: 1},
		HistoryLength: 1,
	}
}

func TestLog_AppendAndRead(t *testing.T) {
	Convey("Given an audit log in an empty directory", t, func() {
		ctx := context.Background()
		dir := t.TempDir()
		log := audit.NewLog(filepath.Join(dir, "vote-events.ndjson"))

		Convey("When reading before anything was appended", func() {
			records, err := log.ReadAll(ctx)

			Convey("Then the stream is empty and no error is raised", func() {
				So(err, ShouldBeNil)
				So(records, ShouldBeEmpty)
			})
		})

		Convey("When three events are appended across two contests", func() {
			So(log.Append(ctx, audit.NewRecord("main", voteEvent("a", "b", 10))), ShouldBeNil)
			So(log.Append(ctx, audit.NewRecord("spring", voteEvent("c", "d", 20))), ShouldBeNil)
			So(log.Append(ctx, audit.NewRecord("main", model.VotesReset{Reason: "cleanup", PreviousMatchCount: 1})), ShouldBeNil)

			Convey("Then ReadAll returns them in append order", func() {
				records, err := log.ReadAll(ctx)
				So(err, ShouldBeNil)
				So(records, ShouldHaveLength, 3)
				So(records[0].ContestID, ShouldEqual, "main")
				So(records[0].Event.Kind(), ShouldEqual, model.KindVoteRecorded)
				So(records[2].Event.Kind(), ShouldEqual, model.KindVotesReset)
			})

			Convey("Then ReadContest filters to one contest", func() {
				records, err := log.ReadContest(ctx, "main")
				So(err, ShouldBeNil)
				So(records, ShouldHaveLength, 2)
				for _, rec := range records {
					So(rec.ContestID, ShouldEqual, "main")
				}
			})

			Convey("Then every record carries a unique id", func() {
				records, err := log.ReadAll(ctx)
				So(err, ShouldBeNil)
				seen := make(map[string]struct{})
				for _, rec := range records {
					So(rec.ID, ShouldNotBeEmpty)
					So(seen, ShouldNotContainKey, rec.ID)
					seen[rec.ID] = struct{}{}
				}
			})

			Convey("Then the file is one JSON object per line", func() {
				data, err := os.ReadFile(log.Path())
				So(err, ShouldBeNil)
				lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
				So(lines, ShouldHaveLength, 3)
				for _, line := range lines {
					So(line, ShouldStartWith, "{")
					So(line, ShouldEndWith, "}")
				}
			})
		})

		Convey("When the file contains a torn line between valid events", func() {
			So(log.Append(ctx, audit.NewRecord("main", voteEvent("a", "b", 10))), ShouldBeNil)
			f, err := os.OpenFile(log.Path(), os.O_WRONLY|os.O_APPEND, 0o600)
			So(err, ShouldBeNil)
			_, err = f.WriteString(`{"id":"torn","type":"vote-rec` + "\n")
			So(err, ShouldBeNil)
			So(f.Close(), ShouldBeNil)
			So(log.Append(ctx, audit.NewRecord("main", voteEvent("c", "d", 20))), ShouldBeNil)

			Convey("Then reading skips the torn line and keeps the rest", func() {
				records, err := log.ReadAll(ctx)
				So(err, ShouldBeNil)
				So(records, ShouldHaveLength, 2)
			})
		})

		Convey("When the file contains an event of an unknown type", func() {
			So(log.Append(ctx, audit.NewRecord("main", voteEvent("a", "b", 10))), ShouldBeNil)
			f, err := os.OpenFile(log.Path(), os.O_WRONLY|os.O_APPEND, 0o600)
			So(err, ShouldBeNil)
			_, err = f.WriteString(`{"id":"x","type":"logo-renamed","occurredAt":"2026-01-01T00:00:00Z","contestId":"main","payload":{}}` + "\n")
			So(err, ShouldBeNil)
			So(f.Close(), ShouldBeNil)

			Convey("Then the unknown event is skipped like a malformed line", func() {
				records, err := log.ReadAll(ctx)
				So(err, ShouldBeNil)
				So(records, ShouldHaveLength, 1)
			})
		})
	})
}
