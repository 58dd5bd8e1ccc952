// Package profile turns submitted student forms into scorer input.
package profile

import (
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/okian/collegepath/internal/domain/model"
	"github.com/okian/collegepath/internal/domain/types"
)

// checked is the typed form the validator sees.
type checked struct {
	Name       string  `json:"name" validate:"max=120"`
	Email      string  `json:"email" validate:"omitempty,email"`
	State      string  `json:"state" validate:"required,region"`
	Stream     string  `json:"stream" validate:"required,stream"`
	Marks10th  float64 `json:"marks10th" validate:"gte=0,lte=100"`
	Marks12th  float64 `json:"marks12th" validate:"gte=0,lte=100"`
	Percentile float64 `json:"percentile" validate:"gte=0,lte=100"`
}

// Parser validates student forms. It is safe for concurrent use.
type Parser struct {
	validate *validator.Validate
}

// NewParser builds a Parser with the region and stream rules registered.
func NewParser() *Parser {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	// Registration only fails on an empty tag.
	_ = v.RegisterValidation("region", func(fl validator.FieldLevel) bool {
		return model.Region(fl.Field().String()).Valid()
	})
	_ = v.RegisterValidation("stream", func(fl validator.FieldLevel) bool {
		return model.Stream(fl.Field().String()).Valid()
	})
	return &Parser{validate: v}
}

var defaultParser = NewParser() //nolint:gochecknoglobals // stateless after construction

// Parse converts a form with the package default parser.
func Parse(f types.StudentForm) (model.StudentProfile, error) {
	return defaultParser.Parse(f)
}

// Parse converts and validates a form. State and stream are trimmed and
// lower-cased; numbers must be finite decimals in [0,100]. Failures are
// reported per field as *InvalidInputError.
func (p *Parser) Parse(f types.StudentForm) (model.StudentProfile, error) {
	fields := make(map[string]string)
	c := checked{
		Name:   strings.TrimSpace(f.Name),
		Email:  strings.TrimSpace(f.Email),
		State:  normalize(f.State),
		Stream: normalize(f.Stream),
	}
	c.Marks10th = parseNumber("marks10th", string(f.Marks10th), fields)
	c.Marks12th = parseNumber("marks12th", string(f.Marks12th), fields)
	c.Percentile = parseNumber("percentile", string(f.Percentile), fields)

	if err := p.validate.Struct(c); err != nil {
		verrs, ok := err.(validator.ValidationErrors) //nolint:errorlint // validator returns the concrete slice
		if !ok {
			return model.StudentProfile{}, fmt.Errorf("%w: %w", ErrInvalidInput, err)
		}
		for _, fe := range verrs {
			if _, seen := fields[fe.Field()]; !seen {
				fields[fe.Field()] = message(fe)
			}
		}
	}
	if len(fields) > 0 {
		return model.StudentProfile{}, &InvalidInputError{Fields: fields}
	}

	return model.StudentProfile{
		Name:       c.Name,
		PriorMarks: c.Marks10th,
		FinalMarks: c.Marks12th,
		Percentile: c.Percentile,
		Stream:     model.Stream(c.Stream),
		Region:     model.Region(c.State),
	}, nil
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// parseNumber records a field error and returns 0 when raw is unusable.
func parseNumber(field, raw string, fields map[string]string) float64 {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		fields[field] = "This field is required"
		return 0
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		fields[field] = "Must be a number"
		return 0
	}
	return v
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required"
	case "email":
		return "Must be a valid email address"
	case "gte":
		return fmt.Sprintf("Must be at least %s", fe.Param())
	case "lte":
		return fmt.Sprintf("Must be at most %s", fe.Param())
	case "max":
		return fmt.Sprintf("Must be at most %s characters long", fe.Param())
	case "stream":
		return "Must be one of: science, commerce, arts"
	case "region":
		return "Unknown state"
	default:
		return fmt.Sprintf("Invalid value (failed on '%s' tag)", fe.Tag())
	}
}
