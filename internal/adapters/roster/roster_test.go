package roster_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/okian/rollcall/internal/adapters/roster"
	"github.com/okian/rollcall/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func writeRoster(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "roster.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestFileSource(t *testing.T) {
	ctx := context.Background()

	Convey("Given a YAML roster file", t, func() {
		path := writeRoster(t, `
players:
  - id: "111"
    nickname: "[DOA]HopOnYourRoof"
  - id: "222"
    nickname: "Bar"
`)

		Convey("Then its entries are listed in file order", func() {
			entries, err := roster.NewFileSource(path).ListRoster(ctx)
			So(err, ShouldBeNil)
			So(entries, ShouldResemble, []model.RosterEntry{
				{PlayerID: "111", Nickname: "[DOA]HopOnYourRoof"},
				{PlayerID: "222", Nickname: "Bar"},
			})
		})
	})

	Convey("Given a roster repeating an id", t, func() {
		path := writeRoster(t, `
players:
  - id: "111"
    nickname: "Foo"
  - id: "111"
    nickname: "Bar"
`)

		Convey("Then it is rejected", func() {
			_, err := roster.NewFileSource(path).ListRoster(ctx)
			So(err, ShouldWrap, roster.ErrInvalidRoster)
		})
	})

	Convey("Given a missing file", t, func() {
		_, err := roster.NewFileSource(filepath.Join(t.TempDir(), "none.yaml")).ListRoster(ctx)

		Convey("Then an error is returned", func() {
			So(err, ShouldNotBeNil)
		})
	})
}

func TestStatic(t *testing.T) {
	Convey("Given a static roster", t, func() {
		s := roster.Static{{PlayerID: "111", Nickname: "Foo"}}

		Convey("Then callers get a copy", func() {
			entries, err := s.ListRoster(context.Background())
			So(err, ShouldBeNil)
			entries[0].Nickname = "changed"
			So(s[0].Nickname, ShouldEqual, "Foo")
		})
	})
}
