package types_test

import (
	"encoding/json"
	"testing"

	types "github.com/okian/collegepath/internal/domain/types"
	. "github.com/smartystreets/goconvey/convey"
)

func TestStudentFormDecoding(t *testing.T) {
	Convey("Given student form JSON", t, func() {
		Convey("When numeric fields are sent as strings", func() {
			var f types.StudentForm
			err := json.Unmarshal([]byte(`{"name":"Asha","state":"delhi","stream":"science","marks10th":"93","marks12th":"95","percentile":"99.5"}`), &f)

			Convey("Then they are kept verbatim", func() {
				So(err, ShouldBeNil)
				So(f.Name, ShouldEqual, "Asha")
				So(f.Marks10th, ShouldEqual, types.FormValue("93"))
				So(f.Percentile, ShouldEqual, types.FormValue("99.5"))
			})
		})

		Convey("When numeric fields are sent as numbers", func() {
			var f types.StudentForm
			err := json.Unmarshal([]byte(`{"state":"delhi","stream":"science","marks10th":93,"marks12th":95.25,"percentile":1e2}`), &f)

			Convey("Then their literal text is kept", func() {
				So(err, ShouldBeNil)
				So(f.Marks10th, ShouldEqual, types.FormValue("93"))
				So(f.Marks12th, ShouldEqual, types.FormValue("95.25"))
				So(f.Percentile, ShouldEqual, types.FormValue("1e2"))
			})
		})

		Convey("When a numeric field is null", func() {
			var f types.StudentForm
			err := json.Unmarshal([]byte(`{"marks10th":null}`), &f)

			Convey("Then it decodes as empty", func() {
				So(err, ShouldBeNil)
				So(f.Marks10th, ShouldEqual, types.FormValue(""))
			})
		})

		Convey("When a numeric field is a boolean", func() {
			var f types.StudentForm
			err := json.Unmarshal([]byte(`{"marks10th":true}`), &f)

			Convey("Then decoding fails", func() {
				So(err, ShouldNotBeNil)
			})
		})
	})
}

func TestScoredCollegeEncoding(t *testing.T) {
	Convey("Given a scored college", t, func() {
		sc := types.ScoredCollege{
			College: types.College{ID: "1", Name: "IIT Delhi", Streams: []string{"science"}},
			Match:   99,
			Tier:    "excellent",
		}

		Convey("When encoded", func() {
			b, err := json.Marshal(sc)
			var m map[string]any
			So(json.Unmarshal(b, &m), ShouldBeNil)

			Convey("Then college fields are flattened next to the match", func() {
				So(err, ShouldBeNil)
				So(m["id"], ShouldEqual, "1")
				So(m["match"], ShouldEqual, 99.0)
				So(m["tier"], ShouldEqual, "excellent")
				So(m, ShouldContainKey, "breakdown")
			})
		})
	})
}

func TestBatchEncoding(t *testing.T) {
	Convey("Given a queued batch", t, func() {
		b := types.Batch{BatchTicket: types.BatchTicket{BatchID: "b-1", Status: types.BatchQueued, Items: 2}}

		Convey("When encoded", func() {
			raw, err := json.Marshal(b)

			Convey("Then results and completion time are omitted", func() {
				So(err, ShouldBeNil)
				So(string(raw), ShouldContainSubstring, `"batch_id":"b-1"`)
				So(string(raw), ShouldNotContainSubstring, "completed_at")
				So(string(raw), ShouldNotContainSubstring, "results")
			})
		})
	})
}
