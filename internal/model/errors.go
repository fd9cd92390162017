package model

import "errors"

// ErrUnknownColumn is returned by Dataset.Column for a name that is not one
// of the NumericColumns.
var ErrUnknownColumn = errors.New("unknown dataset column")
