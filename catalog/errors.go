package catalog

import "fmt"

// ReconstructError reports a table whose catalog rows could not be rebuilt
// from the native schema.
type ReconstructError struct {
	Table string
	Err   error
}

func (e *ReconstructError) Error() string {
	return fmt.Sprintf("reconstruct information schema of table %q: %v", e.Table, e.Err)
}

func (e *ReconstructError) Unwrap() error {
	return e.Err
}
