package runner

// Faults accumulates the errors encountered during a run. It replaces a
// process-global error flag: steps record their faults here and the final
// exit status is derived from whether any were recorded. Degraded results
// still land in the report; Faults only drives the exit code.
type Faults struct {
	errs []error
}

// Record appends a fault. Nil errors are ignored.
func (f *Faults) Record(err error) {
	if err != nil {
		f.errs = append(f.errs, err)
	}
}

// HasAny reports whether any fault was recorded.
func (f *Faults) HasAny() bool {
	return len(f.errs) > 0
}

// All returns the recorded faults in order.
func (f *Faults) All() []error {
	return f.errs
}
