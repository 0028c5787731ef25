// Package schema defines the canonical ordered feature schema shared by the
// training pipeline and the inference adapter. It is the single source of
// truth preventing train/serve skew: vectors either conform exactly or are
// rejected, never silently reordered.
package schema

import (
	"errors"
	"fmt"
)

// Kind describes what a column carries. It is informational; every value is
// stored as float64.
type Kind int

const (
	// Numeric is a continuous measurement.
	Numeric Kind = iota
	// Flag is a 0/1 indicator derived from a condition.
	Flag
	// Encoded is a label-encoded categorical value.
	Encoded
	// Indicator is a one-hot expansion column of a closed enumeration.
	Indicator
)

// Column is one named, typed slot of the schema.
type Column struct {
	Name string
	Kind Kind
}

// Schema is an immutable ordered list of columns.
type Schema struct {
	cols  []Column
	index map[string]int
}

// ErrMismatch is returned when a vector does not match the schema. Callers
// must surface this rather than coercing; it indicates a correctness bug.
var ErrMismatch = errors.New("feature vector does not match schema")

// ErrUnknownColumn is returned when setting or reading a column the schema
// does not define.
var ErrUnknownColumn = errors.New("unknown feature column")

// New builds a schema from an ordered column list. Duplicate names are a
// programming error and panic at construction.
func New(cols ...Column) *Schema {
	index := make(map[string]int, len(cols))
	for i, c := range cols {
		if _, dup := index[c.Name]; dup {
			panic(fmt.Sprintf("schema: duplicate column %q", c.Name))
		}
		index[c.Name] = i
	}
	return &Schema{cols: cols, index: index}
}

// Len returns the number of columns.
func (s *Schema) Len() int { return len(s.cols) }

// Columns returns the column names in order.
func (s *Schema) Columns() []string {
	out := make([]string, len(s.cols))
	for i, c := range s.cols {
		out[i] = c.Name
	}
	return out
}

// Index returns the position of a named column.
func (s *Schema) Index(name string) (int, bool) {
	i, ok := s.index[name]
	return i, ok
}

// Kind returns the kind of a named column.
func (s *Schema) Kind(name string) (Kind, bool) {
	i, ok := s.index[name]
	if !ok {
		return 0, false
	}
	return s.cols[i].Kind, true
}

// Equal reports whether two schemas have identical column names, order, and
// kinds.
func (s *Schema) Equal(other *Schema) bool {
	if other == nil || len(s.cols) != len(other.cols) {
		return false
	}
	for i, c := range s.cols {
		if other.cols[i] != c {
			return false
		}
	}
	return true
}

// Vector is an ordered feature vector bound to its schema. Absent values
// stay zero; columns are never dropped, so the length is stable across
// calls.
type Vector struct {
	schema *Schema
	values []float64
}

// NewVector allocates a zero-filled vector for this schema.
func (s *Schema) NewVector() Vector {
	return Vector{schema: s, values: make([]float64, len(s.cols))}
}

// Schema returns the schema the vector is bound to.
func (v Vector) Schema() *Schema { return v.schema }

// Set assigns a named column. Unknown names are an error, not a no-op.
func (v Vector) Set(name string, value float64) error {
	i, ok := v.schema.index[name]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownColumn, name)
	}
	v.values[i] = value
	return nil
}

// Get reads a named column.
func (v Vector) Get(name string) (float64, bool) {
	i, ok := v.schema.index[name]
	if !ok {
		return 0, false
	}
	return v.values[i], true
}

// Values returns the raw ordered values. The slice is shared; callers must
// not mutate it.
func (v Vector) Values() []float64 { return v.values }

// Clone returns an independent copy of the vector.
func (v Vector) Clone() Vector {
	out := make([]float64, len(v.values))
	copy(out, v.values)
	return Vector{schema: v.schema, values: out}
}

// Conform verifies that the vector was produced against exactly this
// schema. A mismatch must abort the caller's computation.
func (s *Schema) Conform(v Vector) error {
	if v.schema == nil || len(v.values) != len(s.cols) || !s.Equal(v.schema) {
		return ErrMismatch
	}
	return nil
}
