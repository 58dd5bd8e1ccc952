package main

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/smartystreets/goconvey/convey"

	"github.com/okian/collegepath/internal/domain/types"
)

func execute(args ...string) (string, string, error) {
	var out, errOut bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), errOut.String(), err
}

var strongScience = []string{
	"score", "--name", "Asha", "--stream", "science", "--state", "delhi",
	"--marks10th", "93", "--marks12th", "95", "--percentile", "99.5",
}

func TestScoreCommand(t *testing.T) {
	convey.Convey("Given the score command", t, func() {
		convey.Convey("When a strong science profile is scored as a table", func() {
			out, _, err := execute(strongScience...)

			convey.Convey("Then the ranked colleges are printed", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(out, convey.ShouldContainSubstring, "Recommendations for Asha")
				convey.So(out, convey.ShouldContainSubstring, "BITS Pilani")
				convey.So(out, convey.ShouldContainSubstring, "100%")
				convey.So(out, convey.ShouldContainSubstring, "excellent")
			})
		})

		convey.Convey("When JSON output and a smaller limit are requested", func() {
			out, _, err := execute(append(strongScience, "--top", "2", "-f", "json")...)
			var rec types.Recommendation
			jerr := json.Unmarshal([]byte(out), &rec)

			convey.Convey("Then the recommendation decodes", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(jerr, convey.ShouldBeNil)
				convey.So(rec.Count, convey.ShouldEqual, 2)
				convey.So(rec.Colleges[0].ID, convey.ShouldEqual, "4")
				convey.So(rec.Colleges[1].ID, convey.ShouldEqual, "8")
			})
		})

		convey.Convey("When the profile is invalid", func() {
			_, errOut, err := execute("score", "--stream", "medicine", "--state", "delhi",
				"--marks10th", "abc", "--marks12th", "95", "--percentile", "90")

			convey.Convey("Then each bad field is reported", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(errOut, convey.ShouldContainSubstring, "marks10th: Must be a number")
				convey.So(errOut, convey.ShouldContainSubstring, "stream:")
			})
		})

		convey.Convey("When an unknown format is given", func() {
			_, _, err := execute(append(strongScience, "-f", "xml")...)

			convey.Convey("Then the command fails", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(err.Error(), convey.ShouldContainSubstring, "unknown format")
			})
		})
	})
}

func TestCatalogCommand(t *testing.T) {
	convey.Convey("Given the catalog command", t, func() {
		convey.Convey("When listing everything", func() {
			out, _, err := execute("catalog")

			convey.Convey("Then all colleges are shown", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(out, convey.ShouldContainSubstring, "8 colleges")
				convey.So(out, convey.ShouldContainSubstring, "Christ University")
			})
		})

		convey.Convey("When filtering by stream as JSON", func() {
			out, _, err := execute("catalog", "--stream", "arts", "-f", "json")
			var list []types.College
			jerr := json.Unmarshal([]byte(out), &list)

			convey.Convey("Then only arts colleges are listed", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(jerr, convey.ShouldBeNil)
				convey.So(len(list), convey.ShouldEqual, 4)
				for _, c := range list {
					convey.So(c.Streams, convey.ShouldContain, "arts")
				}
			})
		})

		convey.Convey("When filtering by an unknown stream", func() {
			_, _, err := execute("catalog", "--stream", "medicine")

			convey.Convey("Then the command fails", func() {
				convey.So(err, convey.ShouldNotBeNil)
			})
		})
	})
}
