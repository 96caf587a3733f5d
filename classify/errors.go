package classify

import "errors"

var (
	// ErrNoTrainingData is returned when no training row has every feature
	// and a label.
	ErrNoTrainingData = errors.New("classify: no usable training rows")
	// ErrMissingLabel is returned when the training table has no label
	// column.
	ErrMissingLabel = errors.New("classify: training table has no rotate? column")
	// ErrMissingFeature is returned when the inference table lacks a
	// training feature.
	ErrMissingFeature = errors.New("classify: missing feature column")
	// ErrShape is returned for inconsistent sample matrices.
	ErrShape = errors.New("classify: inconsistent sample shape")
)
