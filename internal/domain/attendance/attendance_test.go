package attendance_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/okian/rollcall/internal/domain/attendance"
	"github.com/okian/rollcall/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

type entryKey struct{ player, session string }

type mapStore struct {
	mu      sync.Mutex
	entries map[entryKey]*model.AttendanceEntry
	fail    bool
}

func (s *mapStore) UpsertAttendance(_ context.Context, playerID, sessionKey string, mutate func(*model.AttendanceEntry) *model.AttendanceEntry) (*model.AttendanceEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail {
		return nil, errors.New("down")
	}
	k := entryKey{playerID, sessionKey}
	next := mutate(s.entries[k])
	s.entries[k] = next
	return next, nil
}

func row(playerID string, score int64) *model.EventRecord {
	r := &model.EventRecord{
		EventName:  "Bear Trap",
		EventDate:  time.Date(2025, 3, 1, 20, 0, 0, 0, time.UTC),
		PlayerName: "[DOA]Foo",
		Score:      model.Int64Ptr(score),
	}
	if playerID != "" {
		r.PlayerID = &playerID
	}
	return r
}

func TestProject(t *testing.T) {
	ctx := context.Background()

	Convey("Given matched and ghost rows", t, func() {
		store := &mapStore{entries: map[entryKey]*model.AttendanceEntry{}}
		clock := time.Date(2025, 3, 2, 0, 0, 0, 0, time.UTC)
		p := attendance.NewProjector(store, attendance.WithClock(func() time.Time { return clock }))

		ghostID := model.UnmatchedPlayerID
		ghost := row("", 10)
		ghost.PlayerID = &ghostID
		rep := p.Project(ctx, []*model.EventRecord{row("111", 500000), row("", 1), ghost})

		Convey("Then only the matched row is marked", func() {
			So(rep.Marked, ShouldEqual, 1)
			So(rep.Skipped, ShouldEqual, 2)
			e := store.entries[entryKey{"111", "Bear Trap_20250301"}]
			So(e, ShouldNotBeNil)
			So(e.Status, ShouldEqual, model.AttendancePresent)
			So(*e.Score, ShouldEqual, 500000)
			So(e.MarkedBy, ShouldEqual, attendance.MarkedBy)
		})

		Convey("When the same event is projected again with a lower score", func() {
			clock = clock.Add(time.Hour)
			rep := p.Project(ctx, []*model.EventRecord{row("111", 400000)})

			Convey("Then the entry is refreshed, not duplicated, and keeps the higher score", func() {
				So(rep.Refreshed, ShouldEqual, 1)
				So(rep.Marked, ShouldEqual, 0)
				So(store.entries, ShouldHaveLength, 1)
				e := store.entries[entryKey{"111", "Bear Trap_20250301"}]
				So(*e.Score, ShouldEqual, 500000)
				So(e.MarkedAt, ShouldEqual, clock)
			})
		})

		Convey("When a higher score arrives", func() {
			p.Project(ctx, []*model.EventRecord{row("111", 600000)})
			So(*store.entries[entryKey{"111", "Bear Trap_20250301"}].Score, ShouldEqual, 600000)
		})
	})

	Convey("Given a failing store", t, func() {
		p := attendance.NewProjector(&mapStore{fail: true})
		rep := p.Project(ctx, []*model.EventRecord{row("111", 1)})

		So(rep.Failed, ShouldEqual, 1)
		So(rep.Errors, ShouldHaveLength, 1)
	})
}
