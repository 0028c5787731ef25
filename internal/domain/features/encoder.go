package features

import (
	"fmt"
	"sort"
)

// LabelEncoder maps string labels to stable numeric codes. It is fitted
// once during training and reused identically at inference. Meeting a label
// unseen at fit time is an error, never a silent fallback: a quiet default
// would feed numerically valid garbage into the models.
type LabelEncoder struct {
	codes   map[string]float64
	classes []string
}

// FitLabelEncoder builds an encoder over the distinct values, coded in
// lexical order so the fit is independent of input ordering.
func FitLabelEncoder(values []string) *LabelEncoder {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	classes := make([]string, 0, len(set))
	for v := range set {
		classes = append(classes, v)
	}
	sort.Strings(classes)

	codes := make(map[string]float64, len(classes))
	for i, c := range classes {
		codes[c] = float64(i)
	}
	return &LabelEncoder{codes: codes, classes: classes}
}

// Transform encodes a single label.
func (e *LabelEncoder) Transform(value string) (float64, error) {
	code, ok := e.codes[value]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnseenLabel, value)
	}
	return code, nil
}

// Classes returns the fitted labels in code order.
func (e *LabelEncoder) Classes() []string {
	out := make([]string, len(e.classes))
	copy(out, e.classes)
	return out
}
