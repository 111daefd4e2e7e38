package repository_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/okian/rollcall/internal/adapters/repository"
	"github.com/okian/rollcall/internal/domain/consensus"
	"github.com/okian/rollcall/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

var eventDay = time.Date(2025, 3, 1, 20, 0, 0, 0, time.UTC)

func meta(session string) consensus.Meta {
	return consensus.Meta{SessionID: session, EventName: "Bear Trap", EventType: "bear_trap", EventDate: eventDay}
}

func player(name, id string, rank int, score int64) model.PlayerRecord {
	return model.PlayerRecord{
		RawName:       name,
		Name:          name,
		CorrectedName: name,
		PlayerID:      id,
		Rank:          model.IntPtr(rank),
		Score:         model.Int64Ptr(score),
		Confidence:    0.9,
		SourceImage:   "a.png",
	}
}

func merger(m consensus.Meta, rec model.PlayerRecord) func(*model.EventRecord) (*model.EventRecord, error) {
	return func(existing *model.EventRecord) (*model.EventRecord, error) {
		next, _ := consensus.Merge(existing, m, rec, consensus.DefaultPolicy(), eventDay)
		return next, nil
	}
}

// runContract exercises the Store behaviour every driver must share.
// The store returned by open must start empty.
func runContract(t *testing.T, open func() repository.Store) {
	ctx := context.Background()

	Convey("Given an empty store", t, func() {
		s := open()
		Reset(func() { _ = s.Close() })

		rec := player("[DOA]Foo", "111", 2, 500000)
		key := meta("s1").Key(rec)

		Convey("When a row is upserted twice from different sessions", func() {
			first, err := s.UpsertEventRecord(ctx, key, merger(meta("s1"), rec))
			So(err, ShouldBeNil)
			So(first.ID, ShouldNotBeEmpty)

			rec.Score = model.Int64Ptr(500400)
			second, err := s.UpsertEventRecord(ctx, key, merger(meta("s2"), rec))
			So(err, ShouldBeNil)

			Convey("Then one row carries both sessions", func() {
				So(second.ID, ShouldEqual, first.ID)
				So(second.VerificationCount, ShouldEqual, 2)
				So(second.DataConfidence, ShouldEqual, 1.2)
				So(*second.Score, ShouldEqual, 500400)

				rows, err := s.ListEventRecords(ctx, repository.EventFilter{EventName: "Bear Trap"})
				So(err, ShouldBeNil)
				So(rows, ShouldHaveLength, 1)
				So(rows[0].VerifiedSessionIDs, ShouldResemble, []string{"s1", "s2"})
			})

			Convey("Then session and day filters narrow the listing", func() {
				rows, err := s.ListEventRecords(ctx, repository.EventFilter{SessionID: "s2"})
				So(err, ShouldBeNil)
				So(rows, ShouldHaveLength, 1)

				rows, err = s.ListEventRecords(ctx, repository.EventFilter{SessionID: "s9"})
				So(err, ShouldBeNil)
				So(rows, ShouldBeEmpty)

				rows, err = s.ListEventRecords(ctx, repository.EventFilter{DayKey: "2025-03-02"})
				So(err, ShouldBeNil)
				So(rows, ShouldBeEmpty)
			})
		})

		Convey("When mutate returns nil", func() {
			_, err := s.UpsertEventRecord(ctx, key, func(*model.EventRecord) (*model.EventRecord, error) { return nil, nil })

			Convey("Then the upsert fails with ErrNilRecord", func() {
				So(errors.Is(err, repository.ErrNilRecord), ShouldBeTrue)
			})
		})

		Convey("When mutate changes the key", func() {
			_, err := s.UpsertEventRecord(ctx, key, func(*model.EventRecord) (*model.EventRecord, error) {
				return &model.EventRecord{EventName: "Other", PlayerName: "x", DayKey: key.DayKey}, nil
			})

			Convey("Then the upsert fails with ErrKeyMismatch", func() {
				So(err, ShouldWrap, repository.ErrKeyMismatch)
			})
		})

		Convey("When a ghost and a matched player are stored", func() {
			_, err := s.UpsertEventRecord(ctx, key, merger(meta("s1"), rec))
			So(err, ShouldBeNil)
			ghost := player("Stranger", model.UnmatchedPlayerID, 3, 400000)
			_, err = s.UpsertEventRecord(ctx, meta("s1").Key(ghost), merger(meta("s1"), ghost))
			So(err, ShouldBeNil)

			Convey("Then GhostsOnly returns only the ghost", func() {
				rows, err := s.ListEventRecords(ctx, repository.EventFilter{GhostsOnly: true})
				So(err, ShouldBeNil)
				So(rows, ShouldHaveLength, 1)
				So(rows[0].PlayerName, ShouldEqual, "Stranger")
			})
		})

		Convey("When many sessions upsert the same key concurrently", func() {
			var wg sync.WaitGroup
			for i := range 8 {
				wg.Add(1)
				go func() {
					defer wg.Done()
					_, _ = s.UpsertEventRecord(ctx, key, merger(meta(fmt.Sprintf("s%d", i)), rec))
				}()
			}
			wg.Wait()

			Convey("Then no session is lost", func() {
				rows, err := s.ListEventRecords(ctx, repository.EventFilter{})
				So(err, ShouldBeNil)
				So(rows, ShouldHaveLength, 1)
				So(rows[0].VerificationCount, ShouldEqual, 8)
				So(rows[0].DataConfidence, ShouldEqual, 2.0)
			})
		})

		Convey("When a name is observed unmatched then matched", func() {
			_, err := s.ObserveName(ctx, "HopOnYourRoot", model.UnmatchedPlayerID, 0.5, eventDay)
			So(err, ShouldBeNil)
			m, err := s.ObserveName(ctx, "HopOnYourRoot", "111", 0.9, eventDay.Add(time.Minute))
			So(err, ShouldBeNil)

			Convey("Then the mapping is promoted and counted", func() {
				So(m.PlayerID, ShouldEqual, "111")
				So(m.TimesSeen, ShouldEqual, 2)

				got, err := s.NameMapping(ctx, "HopOnYourRoot")
				So(err, ShouldBeNil)
				So(got.PlayerID, ShouldEqual, "111")
				So(got.Confidence, ShouldEqual, 0.9)
			})

			Convey("Then a later unmatched sighting does not demote it", func() {
				m, err := s.ObserveName(ctx, "HopOnYourRoot", model.UnmatchedPlayerID, 0.99, eventDay.Add(2*time.Minute))
				So(err, ShouldBeNil)
				So(m.PlayerID, ShouldEqual, "111")
			})
		})

		Convey("When a mapping is missing", func() {
			_, err := s.NameMapping(ctx, "nobody")

			Convey("Then ErrNotFound is returned", func() {
				So(err, ShouldEqual, repository.ErrNotFound)
			})
		})

		Convey("When attendance is upserted twice", func() {
			sk := model.EventSessionKey("Bear Trap", eventDay)
			mk := func(score int64) func(*model.AttendanceEntry) *model.AttendanceEntry {
				return func(existing *model.AttendanceEntry) *model.AttendanceEntry {
					if existing != nil {
						e := *existing
						if score > *e.Score {
							e.Score = model.Int64Ptr(score)
						}
						return &e
					}
					return &model.AttendanceEntry{
						PlayerID: "111", EventSessionKey: sk, EventName: "Bear Trap", EventDate: eventDay,
						PlayerName: "[DOA]Foo", Score: model.Int64Ptr(score), Status: model.AttendancePresent,
						MarkedAt: eventDay, MarkedBy: "ocr",
					}
				}
			}
			_, err := s.UpsertAttendance(ctx, "111", sk, mk(100))
			So(err, ShouldBeNil)
			_, err = s.UpsertAttendance(ctx, "111", sk, mk(300))
			So(err, ShouldBeNil)

			Convey("Then one entry holds the higher score", func() {
				list, err := s.ListAttendance(ctx, sk)
				So(err, ShouldBeNil)
				So(list, ShouldHaveLength, 1)
				So(*list[0].Score, ShouldEqual, 300)

				all, err := s.ListAttendance(ctx, "")
				So(err, ShouldBeNil)
				So(all, ShouldHaveLength, 1)
			})
		})

		Convey("When the roster is written twice", func() {
			So(s.PutRoster(ctx, []model.RosterEntry{{PlayerID: "222", Nickname: "Bar"}, {PlayerID: "111", Nickname: "Foo"}}), ShouldBeNil)
			So(s.PutRoster(ctx, []model.RosterEntry{{PlayerID: "222", Nickname: "[DOA]Bar"}}), ShouldBeNil)

			Convey("Then entries are replaced and listed by id", func() {
				roster, err := s.ListRoster(ctx)
				So(err, ShouldBeNil)
				So(roster, ShouldResemble, []model.RosterEntry{
					{PlayerID: "111", Nickname: "Foo"},
					{PlayerID: "222", Nickname: "[DOA]Bar"},
				})

				c, err := s.Counts(ctx)
				So(err, ShouldBeNil)
				So(c.Roster, ShouldEqual, 2)
			})
		})
	})
}
