package dedupe_test

import (
	"context"
	"fmt"
	"sync"
	"testing"

	dedupe "github.com/okian/rollcall/internal/domain/dedupe"
	. "github.com/smartystreets/goconvey/convey"
)

func TestSessionDeduper(t *testing.T) {
	ctx := context.Background()

	Convey("Given a new session deduper", t, func() {
		Convey("When created with default options", func() {
			d := dedupe.NewSessionDeduper()

			Convey("Then it should be empty", func() {
				So(d, ShouldNotBeNil)
				So(d.Size(), ShouldEqual, 0)
			})
		})

		Convey("When recording sessions", func() {
			d := dedupe.NewSessionDeduper()

			Convey("And the session is new", func() {
				seen := d.SeenAndRecord(ctx, "session-1")

				Convey("Then it should return false and record the session", func() {
					So(seen, ShouldBeFalse)
					So(d.Size(), ShouldEqual, 1)
				})
			})

			Convey("And the session was already seen", func() {
				d.SeenAndRecord(ctx, "session-1")
				seen := d.SeenAndRecord(ctx, "session-1")

				Convey("Then it should return true", func() {
					So(seen, ShouldBeTrue)
					So(d.Size(), ShouldEqual, 1)
				})
			})
		})

		Convey("When unrecording a session", func() {
			d := dedupe.NewSessionDeduper()
			d.SeenAndRecord(ctx, "session-1")
			d.Unrecord(ctx, "session-1")
			d.Unrecord(ctx, "missing")

			Convey("Then it can be submitted again", func() {
				So(d.Size(), ShouldEqual, 0)
				So(d.SeenAndRecord(ctx, "session-1"), ShouldBeFalse)
			})
		})

		Convey("When bounded and at capacity", func() {
			d := dedupe.NewSessionDeduper(dedupe.WithMaxSize(3))
			for i := 1; i <= 4; i++ {
				d.SeenAndRecord(ctx, fmt.Sprintf("s%d", i))
			}

			Convey("Then the oldest session is evicted", func() {
				So(d.Size(), ShouldEqual, 3)
				So(d.SeenAndRecord(ctx, "s4"), ShouldBeTrue)
				So(d.SeenAndRecord(ctx, "s3"), ShouldBeTrue)
				So(d.SeenAndRecord(ctx, "s1"), ShouldBeFalse)
			})
		})

		Convey("When unbounded", func() {
			d := dedupe.NewSessionDeduper(dedupe.WithMaxSize(0))
			for i := 0; i < 1000; i++ {
				d.SeenAndRecord(ctx, fmt.Sprintf("s%d", i))
			}

			Convey("Then nothing is evicted", func() {
				So(d.Size(), ShouldEqual, 1000)
				So(d.SeenAndRecord(ctx, "s0"), ShouldBeTrue)
			})
		})
	})

	Convey("Given a deduper with concurrent access", t, func() {
		d := dedupe.NewSessionDeduper(dedupe.WithMaxSize(0))

		Convey("When many goroutines submit the same sessions", func() {
			var wg sync.WaitGroup
			var mu sync.Mutex
			fresh := 0
			for g := 0; g < 8; g++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					for i := 0; i < 50; i++ {
						if !d.SeenAndRecord(ctx, fmt.Sprintf("s%d", i)) {
							mu.Lock()
							fresh++
							mu.Unlock()
						}
					}
				}()
			}
			wg.Wait()

			Convey("Then each session is fresh exactly once", func() {
				So(fresh, ShouldEqual, 50)
				So(d.Size(), ShouldEqual, 50)
			})
		})
	})
}
