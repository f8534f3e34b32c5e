package workflow

// Unmapped records a source entity that has no counterpart in the target
// format.
type Unmapped struct {
	OriginalType string `json:"original_type"`
	OriginalID   string `json:"original_id"`
	Reason       string `json:"reason"`
}

// ConversionResult is the produced model plus every entity that could not be
// carried over.
type ConversionResult[T any] struct {
	Model    T          `json:"model"`
	Unmapped []Unmapped `json:"unmapped"`
}

// Lossless reports whether nothing was left behind.
func (r ConversionResult[T]) Lossless() bool {
	return len(r.Unmapped) == 0
}
