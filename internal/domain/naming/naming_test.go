package naming_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/okian/rollcall/internal/domain/model"
	"github.com/okian/rollcall/internal/domain/naming"
	"github.com/smartystreets/goconvey/convey"
)

func TestClean(t *testing.T) {
	convey.Convey("Given OCR names with bracket misreads", t, func() {
		cases := []struct{ in, want string }{
			{"  [DOA]Foo  ", "[DOA]Foo"},
			{"(DOA]Foo", "[DOA]Foo"},
			{"{DOA]Foo", "[DOA]Foo"},
			{"[DOA)Foo", "[DOA]Foo"},
			{"[DOA|Foo", "[DOA]Foo"},
			{"[AB}Bar", "[AB]Bar"},
			{"[DOA]Foo   Bar", "[DOA]Foo Bar"},
			{"NoTag", "NoTag"},
			{"", ""},
		}
		for _, tc := range cases {
			convey.So(naming.CleanName(tc.in), convey.ShouldEqual, tc.want)
		}
	})

	convey.Convey("Given a cleaner that knows the DOA tag", t, func() {
		c := naming.NewCleaner("[DOA]")

		convey.So(c.Clean("[DOAJHopOnYourRoof"), convey.ShouldEqual, "[DOA]HopOnYourRoof")
		convey.So(c.Clean("[DOAHopOnYourRoof"), convey.ShouldEqual, "[DOA]HopOnYourRoof")
		convey.So(c.Clean("[doaJFoo"), convey.ShouldEqual, "[doa]Foo")
		convey.So(c.Clean("[DOAX]Foo"), convey.ShouldEqual, "[DOAX]Foo")
		convey.So(c.Clean("[XYZJFoo"), convey.ShouldEqual, "[XYZJFoo")
	})
}

func TestParseTag(t *testing.T) {
	convey.Convey("Given tagged and untagged names", t, func() {
		tag, name, ok := naming.ParseTag("[DOA] HopOnYourRoot")
		convey.So(ok, convey.ShouldBeTrue)
		convey.So(tag, convey.ShouldEqual, "DOA")
		convey.So(name, convey.ShouldEqual, "HopOnYourRoot")

		tag, name, ok = naming.ParseTag("PlainName")
		convey.So(ok, convey.ShouldBeFalse)
		convey.So(tag, convey.ShouldEqual, "")
		convey.So(name, convey.ShouldEqual, "PlainName")

		_, _, ok = naming.ParseTag("[DOA]")
		convey.So(ok, convey.ShouldBeFalse)

		convey.So(naming.WithTag("DOA", "Foo"), convey.ShouldEqual, "[DOA]Foo")
		convey.So(naming.WithTag("", "Foo"), convey.ShouldEqual, "Foo")
	})
}

func TestIndexCorrect(t *testing.T) {
	roster := []model.RosterEntry{
		{PlayerID: "111", Nickname: "HopOnYourRoof"},
		{PlayerID: "222", Nickname: "Foo"},
		{PlayerID: "333", Nickname: "[ABC]Tagged"},
		{PlayerID: "", Nickname: "Broken"},
	}

	convey.Convey("Given a roster index", t, func() {
		ix := naming.NewIndex(roster)
		convey.So(ix.Len(), convey.ShouldEqual, 3)

		convey.Convey("When correcting a one-letter misread", func() {
			res := ix.Correct("[DOA]HopOnYourRoot")

			convey.Convey("Then the roster nickname is restored with the detected tag", func() {
				convey.So(res.Matched, convey.ShouldBeTrue)
				convey.So(res.Corrected, convey.ShouldEqual, "[DOA]HopOnYourRoof")
				convey.So(res.PlayerID, convey.ShouldEqual, "111")
				convey.So(res.Similarity, convey.ShouldBeGreaterThanOrEqualTo, naming.DefaultMatchThreshold)
				convey.So(res.Confidence(), convey.ShouldBeBetween, 0.75, 1.0)
			})

			convey.Convey("Then a four-letter tag is kept as read", func() {
				res := ix.Correct("[DOAJ]HopOnYourRoot")
				convey.So(res.Matched, convey.ShouldBeTrue)
				convey.So(res.Corrected, convey.ShouldEqual, "[DOAJ]HopOnYourRoof")
				convey.So(res.Tag, convey.ShouldEqual, "DOAJ")
				convey.So(res.PlayerID, convey.ShouldEqual, "111")
				convey.So(res.Similarity, convey.ShouldBeGreaterThanOrEqualTo, naming.DefaultMatchThreshold)
			})
		})

		convey.Convey("When no roster entry is close enough", func() {
			res := ix.Correct("(XYZ]Zzyzx")

			convey.Convey("Then the cleaned name is kept as a ghost", func() {
				convey.So(res.Matched, convey.ShouldBeFalse)
				convey.So(res.PlayerID, convey.ShouldEqual, model.UnmatchedPlayerID)
				convey.So(res.Corrected, convey.ShouldEqual, "[XYZ]Zzyzx")
				convey.So(res.Tag, convey.ShouldEqual, "XYZ")
			})
		})

		convey.Convey("When the name has no tag", func() {
			res := ix.Correct("Foo")
			convey.So(res.Corrected, convey.ShouldEqual, "Foo")
			convey.So(res.PlayerID, convey.ShouldEqual, "222")
		})

		convey.Convey("When the roster entry carries its own tag", func() {
			res := ix.Correct("Tagged")
			convey.So(res.PlayerID, convey.ShouldEqual, "333")
			convey.So(res.Corrected, convey.ShouldEqual, "[ABC]Tagged")

			res = ix.Correct("[DOA]Tagged")
			convey.So(res.Corrected, convey.ShouldEqual, "[DOA]Tagged")
		})

		convey.Convey("When the threshold is raised above the score", func() {
			strict := naming.NewIndex(roster, naming.WithMatchThreshold(95))
			convey.So(strict.Correct("[DOA]HopOnYourRoot").Matched, convey.ShouldBeFalse)
		})
	})
}

type fakeMappings struct {
	seen map[string]model.NameMapping
	fail map[string]bool
}

func (f *fakeMappings) ObserveName(_ context.Context, observed, playerID string, confidence float64, at time.Time) (model.NameMapping, error) {
	if f.fail[observed] {
		return model.NameMapping{}, errors.New("db down")
	}
	m := f.seen[observed]
	m.ObservedName = observed
	m.Observe(playerID, confidence, at)
	f.seen[observed] = m
	return m, nil
}

func TestCorrectorApply(t *testing.T) {
	convey.Convey("Given records from one upload", t, func() {
		store := &fakeMappings{seen: map[string]model.NameMapping{}, fail: map[string]bool{"[DOA]Broken": true}}
		ix := naming.NewIndex([]model.RosterEntry{{PlayerID: "111", Nickname: "HopOnYourRoof"}})
		c := naming.NewCorrector(store, naming.WithClock(func() time.Time { return time.Unix(100, 0) }))

		records := []model.PlayerRecord{
			{RawName: "[DOA]HopOnYourRoot"},
			{RawName: "[DOA]Ghosty"},
			{RawName: "[DOA]Broken"},
		}
		sum := c.Apply(context.Background(), ix, records)

		convey.Convey("Then every record is corrected and counted", func() {
			convey.So(sum.Matched, convey.ShouldEqual, 1)
			convey.So(sum.Unmatched, convey.ShouldEqual, 2)
			convey.So(sum.Corrections, convey.ShouldEqual, 1)
			convey.So(sum.MappingErrors, convey.ShouldEqual, 1)

			convey.So(records[0].CorrectedName, convey.ShouldEqual, "[DOA]HopOnYourRoof")
			convey.So(records[0].Matched(), convey.ShouldBeTrue)
			convey.So(records[1].PlayerID, convey.ShouldEqual, model.UnmatchedPlayerID)
			convey.So(records[1].AllianceTag, convey.ShouldEqual, "DOA")
		})

		convey.Convey("Then mappings are keyed by the observed name", func() {
			m := store.seen["[DOA]HopOnYourRoot"]
			convey.So(m.PlayerID, convey.ShouldEqual, "111")
			convey.So(m.TimesSeen, convey.ShouldEqual, 1)
			convey.So(store.seen["[DOA]Ghosty"].PlayerID, convey.ShouldEqual, model.UnmatchedPlayerID)
		})
	})
}
