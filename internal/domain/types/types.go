// Package types contains the JSON shapes exchanged with clients.
package types

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// FormValue is a form field that accepts a JSON string or a JSON number.
// Numbers keep their literal text so the profile parser sees what was sent.
type FormValue string

// UnmarshalJSON implements json.Unmarshaler.
func (v *FormValue) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*v = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*v = FormValue(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("form value must be a string or number: %w", err)
	}
	*v = FormValue(n.String())
	return nil
}

// StudentForm is the raw student form as submitted.
type StudentForm struct {
	Name       string    `json:"name,omitempty"`
	Email      string    `json:"email,omitempty"`
	State      string    `json:"state"`
	Stream     string    `json:"stream"`
	Marks10th  FormValue `json:"marks10th"`
	Marks12th  FormValue `json:"marks12th"`
	Percentile FormValue `json:"percentile"`
}

// College is a catalog entry.
type College struct {
	ID               string   `json:"id"`
	Name             string   `json:"name"`
	Location         string   `json:"location"`
	Type             string   `json:"type"`
	Rating           float64  `json:"rating"`
	Fees             string   `json:"fees"`
	Cutoff           string   `json:"cutoff"`
	Placement        string   `json:"placement"`
	Courses          []string `json:"courses"`
	MinPercentile    float64  `json:"min_percentile"`
	PreferredRegions []string `json:"preferred_regions"`
	Streams          []string `json:"streams"`
}

// Breakdown exposes the component scores behind a match.
type Breakdown struct {
	Qualification float64 `json:"qualification"`
	Performance   float64 `json:"performance"`
	Region        float64 `json:"region"`
	Consistency   float64 `json:"consistency"`
	Raw           float64 `json:"raw"`
	Qualified     bool    `json:"qualified"`
}

// ScoredCollege is a recommended college.
type ScoredCollege struct {
	College
	Match     int       `json:"match"`
	Tier      string    `json:"tier"`
	Breakdown Breakdown `json:"breakdown"`
}

// Recommendation is the answer for one student.
type Recommendation struct {
	Student  string          `json:"student,omitempty"`
	Stream   string          `json:"stream"`
	Region   string          `json:"region"`
	Count    int             `json:"count"`
	Colleges []ScoredCollege `json:"colleges"`
}

// Batch statuses.
const (
	BatchQueued     = "queued"
	BatchProcessing = "processing"
	BatchDone       = "done"
)

// BatchRequest submits many student forms at once.
type BatchRequest struct {
	RequestID string        `json:"request_id"`
	Profiles  []StudentForm `json:"profiles"`
}

// BatchTicket acknowledges a batch submission.
type BatchTicket struct {
	BatchID     string    `json:"batch_id"`
	RequestID   string    `json:"request_id"`
	Status      string    `json:"status"`
	Items       int       `json:"items"`
	SubmittedAt time.Time `json:"submitted_at"`
}

// BatchItem is the outcome for one form of a batch.
type BatchItem struct {
	Index          int               `json:"index"`
	Recommendation *Recommendation   `json:"recommendation,omitempty"`
	Error          string            `json:"error,omitempty"`
	Fields         map[string]string `json:"fields,omitempty"`
}

// Batch is a batch and, once done, its results.
type Batch struct {
	BatchTicket
	CompletedAt *time.Time  `json:"completed_at,omitempty"`
	Results     []BatchItem `json:"results,omitempty"`
}

// Stats reports service counters.
type Stats struct {
	CatalogSize      int   `json:"catalog_size"`
	Recommendations  int64 `json:"recommendations"`
	InvalidInputs    int64 `json:"invalid_inputs"`
	BatchesSubmitted int64 `json:"batches_submitted"`
	BatchesCompleted int64 `json:"batches_completed"`
	QueueLen         int   `json:"queue_len"`
	QueueCapacity    int   `json:"queue_capacity"`
	Workers          int   `json:"workers"`
	StoredResults    int   `json:"stored_results"`
	DedupeSize       int   `json:"dedupe_size"`
}
