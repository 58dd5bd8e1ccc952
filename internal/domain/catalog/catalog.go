// Package catalog holds the compiled-in college table.
package catalog

import (
	"bytes"
	_ "embed"
	"fmt"
	"math"
	"sync"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/okian/collegepath/internal/domain/model"
)

//go:embed colleges.yaml
var defaultData []byte

type document struct {
	Colleges []entry `yaml:"colleges" validate:"required,min=1,dive"`
}

type entry struct {
	ID               string   `yaml:"id" validate:"required"`
	Name             string   `yaml:"name" validate:"required"`
	Location         string   `yaml:"location"`
	Type             string   `yaml:"type"`
	Rating           float64  `yaml:"rating" validate:"gte=0,lte=5"`
	Fees             string   `yaml:"fees"`
	Cutoff           string   `yaml:"cutoff"`
	Placement        string   `yaml:"placement"`
	Courses          []string `yaml:"courses"`
	MinPercentile    float64  `yaml:"min_percentile" validate:"gt=0"`
	PreferredRegions []string `yaml:"preferred_regions" validate:"dive,required"`
	Streams          []string `yaml:"streams" validate:"required,min=1,dive,oneof=science commerce arts"`
}

func (e entry) college() model.College {
	c := model.College{
		ID:               e.ID,
		Name:             e.Name,
		Location:         e.Location,
		Type:             e.Type,
		Rating:           e.Rating,
		Fees:             e.Fees,
		Cutoff:           e.Cutoff,
		Placement:        e.Placement,
		Courses:          append([]string(nil), e.Courses...),
		MinPercentile:    e.MinPercentile,
		PreferredRegions: make([]model.Region, len(e.PreferredRegions)),
		Streams:          make([]model.Stream, len(e.Streams)),
	}
	for i, r := range e.PreferredRegions {
		c.PreferredRegions[i] = model.Region(r)
	}
	for i, s := range e.Streams {
		c.Streams[i] = model.Stream(s)
	}
	return c
}

// Catalog is an immutable, ordered set of colleges.
type Catalog struct {
	colleges []model.College
	byID     map[string]int
}

// New decodes and validates a YAML catalog document.
func New(data []byte) (*Catalog, error) {
	var doc document
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: decode: %w", ErrIntegrity, err)
	}
	if err := validator.New().Struct(doc); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrIntegrity, err)
	}

	c := &Catalog{
		colleges: make([]model.College, 0, len(doc.Colleges)),
		byID:     make(map[string]int, len(doc.Colleges)),
	}
	for _, e := range doc.Colleges {
		if math.IsInf(e.MinPercentile, 0) || math.IsNaN(e.MinPercentile) {
			return nil, fmt.Errorf("%w: college %s: min_percentile must be finite", ErrIntegrity, e.ID)
		}
		if _, dup := c.byID[e.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate college id %q", ErrIntegrity, e.ID)
		}
		c.byID[e.ID] = len(c.colleges)
		c.colleges = append(c.colleges, e.college())
	}
	return c, nil
}

var (
	defaultOnce    sync.Once
	defaultCatalog *Catalog
)

// Default returns the compiled-in catalog. It panics if the embedded table
// fails validation.
func Default() *Catalog {
	defaultOnce.Do(func() {
		c, err := New(defaultData)
		if err != nil {
			panic(err)
		}
		defaultCatalog = c
	})
	return defaultCatalog
}

// All returns every college in catalog order.
func (c *Catalog) All() []model.College {
	out := make([]model.College, len(c.colleges))
	for i, col := range c.colleges {
		out[i] = clone(col)
	}
	return out
}

// ByID looks a college up by id.
func (c *Catalog) ByID(id string) (model.College, error) {
	i, ok := c.byID[id]
	if !ok {
		return model.College{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return clone(c.colleges[i]), nil
}

// ForStream returns the colleges accepting s, in catalog order.
func (c *Catalog) ForStream(s model.Stream) []model.College {
	out := make([]model.College, 0, len(c.colleges))
	for _, col := range c.colleges {
		if col.Accepts(s) {
			out = append(out, clone(col))
		}
	}
	return out
}

// Streams returns the streams at least one college accepts.
func (c *Catalog) Streams() []model.Stream {
	var out []model.Stream
	for _, s := range model.Streams() {
		for _, col := range c.colleges {
			if col.Accepts(s) {
				out = append(out, s)
				break
			}
		}
	}
	return out
}

// Len returns the number of colleges.
func (c *Catalog) Len() int { return len(c.colleges) }

func clone(c model.College) model.College {
	c.Courses = append([]string(nil), c.Courses...)
	c.PreferredRegions = append([]model.Region(nil), c.PreferredRegions...)
	c.Streams = append([]model.Stream(nil), c.Streams...)
	return c
}
