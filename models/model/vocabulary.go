package model

import "fmt"

// Vocabulary maps detector class ids to labels. It is built once and never
// modified, so it can be shared between goroutines by reference.
type Vocabulary struct {
	labels []string
}

// NewVocabulary copies labels into a new vocabulary.
func NewVocabulary(labels []string) *Vocabulary {
	return &Vocabulary{labels: append([]string(nil), labels...)}
}

// Len returns the number of classes.
func (v *Vocabulary) Len() int {
	if v == nil {
		return 0
	}
	return len(v.labels)
}

// Name returns the label for id, or "unknown_<id>" when id is out of range.
func (v *Vocabulary) Name(id int) string {
	if v == nil || id < 0 || id >= len(v.labels) {
		return fmt.Sprintf("unknown_%d", id)
	}
	return v.labels[id]
}
