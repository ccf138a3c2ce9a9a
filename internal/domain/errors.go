package domain

import "fmt"

// SchemaError reports a required column that is entirely absent from a batch.
// It fails the whole batch before any write is attempted; per-row missing
// values are tolerated as nulls and never produce a SchemaError.
type SchemaError struct {
	Column string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("required column %q missing from batch", e.Column)
}
