// Package model contains domain models passed between layers.
package model

// Stream is the academic track a student followed in the final year.
type Stream string

// Known streams.
const (
	StreamScience  Stream = "science"
	StreamCommerce Stream = "commerce"
	StreamArts     Stream = "arts"
)

// Streams lists every known stream in display order.
func Streams() []Stream {
	return []Stream{StreamScience, StreamCommerce, StreamArts}
}

// Valid reports whether s is a known stream.
func (s Stream) Valid() bool {
	switch s {
	case StreamScience, StreamCommerce, StreamArts:
		return true
	}
	return false
}

// Region is a state code, e.g. "tamil-nadu".
type Region string

// Regions lists the state codes accepted from students.
func Regions() []Region {
	return []Region{
		"maharashtra", "delhi", "karnataka", "tamil-nadu", "rajasthan",
		"uttar-pradesh", "west-bengal", "gujarat", "punjab", "haryana",
	}
}

// Valid reports whether r is one of Regions.
func (r Region) Valid() bool {
	for _, known := range Regions() {
		if r == known {
			return true
		}
	}
	return false
}

// StudentProfile is a student's academic record. It is never persisted.
type StudentProfile struct {
	Name       string  // display name, optional
	PriorMarks float64 // 10th grade percentage
	FinalMarks float64 // 12th grade percentage
	Percentile float64 // entrance-exam percentile
	Stream     Stream
	Region     Region
}
