package main

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/okian/rollcall/internal/domain/model"
	"github.com/smartystreets/goconvey/convey"
)

func TestBuildUpload(t *testing.T) {
	convey.Convey("Given a directory of screenshots", t, func() {
		dir := t.TempDir()
		for name, body := range map[string]string{
			"b.PNG":     "second",
			"a.png":     "first",
			"notes.txt": "skip",
		} {
			convey.So(os.WriteFile(filepath.Join(dir, name), []byte(body), 0o600), convey.ShouldBeNil)
		}
		convey.So(os.Mkdir(filepath.Join(dir, "nested.png"), 0o700), convey.ShouldBeNil)

		convey.Convey("Then only image files are read, in name order", func() {
			up, err := buildUpload(options{dir: dir, eventName: "Bear Hunt", eventDate: "2025-03-02"})
			convey.So(err, convey.ShouldBeNil)
			convey.So(up.Images, convey.ShouldHaveLength, 2)
			convey.So(up.Images[0].Name, convey.ShouldEqual, "a.png")
			convey.So(string(up.Images[1].Data), convey.ShouldEqual, "second")
			convey.So(up.EventDate.Format("2006-01-02"), convey.ShouldEqual, "2025-03-02")
			convey.So(up.Validate(), convey.ShouldBeNil)
		})

		convey.Convey("Then a bad date is rejected", func() {
			_, err := buildUpload(options{dir: dir, eventName: "x", eventDate: "02/03/2025"})
			convey.So(err, convey.ShouldNotBeNil)
		})
	})

	convey.Convey("Given an empty directory", t, func() {
		_, err := buildUpload(options{dir: t.TempDir(), eventName: "x", eventDate: "2025-03-02"})
		convey.So(errors.Is(err, model.ErrNoImages), convey.ShouldBeTrue)
	})
}

func TestParseFlags(t *testing.T) {
	convey.Convey("Given command line arguments", t, func() {
		convey.Convey("Then dir and event are required", func() {
			_, err := parseFlags([]string{"-dir", "shots"})
			convey.So(errors.Is(err, errUsage), convey.ShouldBeTrue)
		})

		convey.Convey("Then all flags are read", func() {
			o, err := parseFlags([]string{"-dir", "shots", "-event", "Bear Hunt", "-type", "alliance", "-date", "2025-03-02", "-session", "s1"})
			convey.So(err, convey.ShouldBeNil)
			convey.So(o, convey.ShouldResemble, options{dir: "shots", eventName: "Bear Hunt", eventType: "alliance", eventDate: "2025-03-02", sessionID: "s1"})
		})
	})
}
