package model

// Writer defines a generic interface for exporting an evaluated run to a
// sink (CSV file, terminal report, ClickHouse, JSON archive, ...).
type Writer interface {
	// Write renders and persists the run result. Implementations must not
	// mutate the result.
	Write(run *RunResult) error

	// Name identifies the writer in logs and error messages.
	Name() string
}
