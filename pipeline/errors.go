package pipeline

import "errors"

// ErrMissingColumns is returned when a lesson file lacks required named columns.
var ErrMissingColumns = errors.New("lesson file is missing required columns")
