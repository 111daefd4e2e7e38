package report_test

import (
	"testing"
	"time"

	"github.com/okian/rollcall/internal/domain/model"
	"github.com/okian/rollcall/internal/domain/report"
	. "github.com/smartystreets/goconvey/convey"
)

var day = time.Date(2025, 3, 1, 20, 0, 0, 0, time.UTC)

func row(event, name, id string, score int64, verifications int) *model.EventRecord {
	r := &model.EventRecord{
		EventName:         event,
		EventDate:         day,
		DayKey:            model.DayKey(day),
		PlayerName:        name,
		Score:             model.Int64Ptr(score),
		VerificationCount: verifications,
		DataConfidence:    1 + 0.2*float64(verifications-1),
		UpdatedAt:         day,
	}
	if id != "" {
		r.PlayerID = &id
	}
	return r
}

func TestEventDetail(t *testing.T) {
	Convey("Given the rows of one event", t, func() {
		rows := []*model.EventRecord{
			row("Bear Trap", "[DOA]Low", "1", 100, 1),
			row("Bear Trap", "[DOA]High", "", 900, 2),
			row("Bear Trap", "[DOA]Mid", "2", 500, 3),
		}
		d := report.EventDetail(rows)

		Convey("Then players are ranked by score", func() {
			So(d.EventName, ShouldEqual, "Bear Trap")
			So(d.Day, ShouldEqual, "2025-03-01")
			So(d.Players, ShouldHaveLength, 3)
			So(d.Players[0].PlayerName, ShouldEqual, "High")
			So(d.Players[0].AllianceTag, ShouldEqual, "DOA")
			So(d.Players[0].CalculatedRank, ShouldEqual, 1)
			So(d.Players[0].Matched, ShouldBeFalse)
			So(d.Players[0].PlayerID, ShouldEqual, model.UnmatchedPlayerID)
			So(d.Players[2].PlayerName, ShouldEqual, "Low")
			So(d.TotalScore, ShouldEqual, 1500)
			So(d.Matched, ShouldEqual, 2)
			So(d.Ghosts, ShouldEqual, 1)
		})
	})

	Convey("Given no rows", t, func() {
		So(report.EventDetail(nil).Players, ShouldBeEmpty)
	})
}

func TestGhosts(t *testing.T) {
	Convey("Given ghost rows across two events", t, func() {
		rows := []*model.EventRecord{
			row("Bear Trap", "[DOA]Ghost", "", 700, 1),
			row("Bear Trap", "[DOA]Real", "1", 900, 1),
			row("Foundry", "[DOA]Ghost", "", 300, 3),
			row("Foundry", "[XYZ]Once", model.UnmatchedPlayerID, 50, 1),
		}
		ghosts := report.Ghosts(rows)

		Convey("Then they are aggregated per name", func() {
			So(ghosts, ShouldHaveLength, 2)
			g := ghosts[0]
			So(g.PlayerName, ShouldEqual, "[DOA]Ghost")
			So(g.Appearances, ShouldEqual, 2)
			So(g.TotalScore, ShouldEqual, 1000)
			So(*g.BestScore, ShouldEqual, 700)
			So(*g.BestRank, ShouldEqual, 1)
			So(g.AvgVerification, ShouldEqual, 2)
			So(g.Events, ShouldResemble, []string{"Bear Trap_20250301", "Foundry_20250301"})
			So(ghosts[1].PlayerName, ShouldEqual, "[XYZ]Once")
		})
	})
}

func TestTopPlayersAndVerification(t *testing.T) {
	Convey("Given a small ledger", t, func() {
		rows := []*model.EventRecord{
			row("Bear Trap", "[DOA]A", "1", 700, 1),
			row("Foundry", "[DOA]A", "1", 300, 2),
			row("Bear Trap", "[DOA]B", "2", 900, 3),
			row("Foundry", "[DOA]C", "", 10, 4),
		}

		Convey("Then top players sum their scores", func() {
			top := report.TopPlayers(rows, 2)
			So(top, ShouldHaveLength, 2)
			So(top[0].PlayerName, ShouldEqual, "A")
			So(top[0].TotalScore, ShouldEqual, 1000)
			So(top[0].EventCount, ShouldEqual, 2)
			So(*top[0].BestRank, ShouldEqual, 1)
			So(top[0].AvgVerification, ShouldEqual, 1.5)
			So(top[1].PlayerName, ShouldEqual, "B")
		})

		Convey("Then verification buckets the rows", func() {
			v := report.Verification(rows)
			So(v.TotalRecords, ShouldEqual, 4)
			So(v.High, ShouldEqual, 2)
			So(v.Medium, ShouldEqual, 1)
			So(v.Low, ShouldEqual, 1)
			So(v.AvgConfidence, ShouldEqual, 1.3)
		})
	})
}
