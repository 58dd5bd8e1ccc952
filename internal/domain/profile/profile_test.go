package profile_test

import (
	"errors"
	"sync"
	"testing"

	"github.com/okian/collegepath/internal/domain/model"
	"github.com/okian/collegepath/internal/domain/profile"
	"github.com/okian/collegepath/internal/domain/types"
	. "github.com/smartystreets/goconvey/convey"
)

func validForm() types.StudentForm {
	return types.StudentForm{
		Name:       "Asha",
		Email:      "asha@example.com",
		State:      "delhi",
		Stream:     "science",
		Marks10th:  "93",
		Marks12th:  "95",
		Percentile: "99.5",
	}
}

func fieldsOf(err error) map[string]string {
	var ie *profile.InvalidInputError
	if errors.As(err, &ie) {
		return ie.Fields
	}
	return nil
}

func TestParseValid(t *testing.T) {
	Convey("Given a valid form", t, func() {
		Convey("When parsed", func() {
			p, err := profile.Parse(validForm())

			Convey("Then a typed profile is produced", func() {
				So(err, ShouldBeNil)
				So(p, ShouldResemble, model.StudentProfile{
					Name:       "Asha",
					PriorMarks: 93,
					FinalMarks: 95,
					Percentile: 99.5,
					Stream:     model.StreamScience,
					Region:     "delhi",
				})
			})
		})

		Convey("When state and stream carry case and spaces", func() {
			f := validForm()
			f.State = "  Tamil-Nadu "
			f.Stream = "COMMERCE"
			p, err := profile.Parse(f)

			Convey("Then they are normalized", func() {
				So(err, ShouldBeNil)
				So(p.Region, ShouldEqual, model.Region("tamil-nadu"))
				So(p.Stream, ShouldEqual, model.StreamCommerce)
			})
		})

		Convey("When optional name and email are absent", func() {
			f := validForm()
			f.Name, f.Email = "", ""
			_, err := profile.Parse(f)

			Convey("Then the form is still valid", func() {
				So(err, ShouldBeNil)
			})
		})

		Convey("When values sit on the range edges", func() {
			f := validForm()
			f.Marks10th, f.Marks12th, f.Percentile = "0", "100", " 100.0 "
			p, err := profile.Parse(f)

			Convey("Then they are accepted", func() {
				So(err, ShouldBeNil)
				So(p.Percentile, ShouldEqual, 100.0)
			})
		})
	})
}

func TestParseInvalid(t *testing.T) {
	Convey("Given invalid forms", t, func() {
		cases := []struct {
			name   string
			mutate func(*types.StudentForm)
			field  string
			msg    string
		}{
			{"non-numeric percentile", func(f *types.StudentForm) { f.Percentile = "abc" }, "percentile", "Must be a number"},
			{"NaN marks", func(f *types.StudentForm) { f.Marks12th = "NaN" }, "marks12th", "Must be a number"},
			{"infinite marks", func(f *types.StudentForm) { f.Marks10th = "+Inf" }, "marks10th", "Must be a number"},
			{"overflowing percentile", func(f *types.StudentForm) { f.Percentile = "1e400" }, "percentile", "Must be a number"},
			{"missing marks", func(f *types.StudentForm) { f.Marks10th = "  " }, "marks10th", "This field is required"},
			{"percentile above range", func(f *types.StudentForm) { f.Percentile = "100.01" }, "percentile", "Must be at most 100"},
			{"negative marks", func(f *types.StudentForm) { f.Marks12th = "-1" }, "marks12th", "Must be at least 0"},
			{"unknown stream", func(f *types.StudentForm) { f.Stream = "law" }, "stream", "Must be one of: science, commerce, arts"},
			{"missing stream", func(f *types.StudentForm) { f.Stream = "" }, "stream", "This field is required"},
			{"unknown state", func(f *types.StudentForm) { f.State = "atlantis" }, "state", "Unknown state"},
			{"bad email", func(f *types.StudentForm) { f.Email = "not-an-email" }, "email", "Must be a valid email address"},
		}

		for _, tc := range cases {
			f := validForm()
			tc.mutate(&f)
			_, err := profile.Parse(f)

			So(err, ShouldNotBeNil)
			So(errors.Is(err, profile.ErrInvalidInput), ShouldBeTrue)
			So(fieldsOf(err), ShouldContainKey, tc.field)
			So(fieldsOf(err)[tc.field], ShouldEqual, tc.msg)
			So(len(fieldsOf(err)), ShouldEqual, 1)
		}
	})

	Convey("Given a form with several bad fields", t, func() {
		_, err := profile.Parse(types.StudentForm{Stream: "science", Marks10th: "x"})

		Convey("Then every field is reported", func() {
			fields := fieldsOf(err)
			So(fields, ShouldContainKey, "state")
			So(fields, ShouldContainKey, "marks10th")
			So(fields, ShouldContainKey, "marks12th")
			So(fields, ShouldContainKey, "percentile")
			So(fields, ShouldNotContainKey, "stream")
			So(err.Error(), ShouldStartWith, "invalid input: marks10th: Must be a number")
		})
	})
}

func TestParserConcurrency(t *testing.T) {
	Convey("Given one parser shared by many goroutines", t, func() {
		p := profile.NewParser()
		var wg sync.WaitGroup
		errs := make(chan error, 64)
		for i := 0; i < 64; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := p.Parse(validForm())
				errs <- err
			}()
		}
		wg.Wait()
		close(errs)

		Convey("Then every parse succeeds", func() {
			for err := range errs {
				So(err, ShouldBeNil)
			}
		})
	})
}
