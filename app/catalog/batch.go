package catalog

import "fmt"

// BatchResult summarizes a batch operation that keeps going past individual
// failures.
type BatchResult struct {
	Succeeded int
	Failed    int
	Errors    []error
}

// OK counts one succeeded entry.
func (r *BatchResult) OK() {
	r.Succeeded++
}

// Fail counts one failed entry and keeps its error.
func (r *BatchResult) Fail(err error) {
	r.Failed++
	r.Errors = append(r.Errors, err)
}

// String renders the summary in the form "3 succeeded, 1 failed".
func (r BatchResult) String() string {
	return fmt.Sprintf("%d succeeded, %d failed", r.Succeeded, r.Failed)
}
