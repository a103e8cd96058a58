package milestonereport

// JobStatus represents the remote report job's progress as the status
// endpoint reports it.
//
// Using a string type allows for easy JSON serialization and
// human-readable logging while maintaining type safety through the
// defined constants.
type JobStatus string

const (
	// JobPending indicates the job is still running and has produced no
	// usable data yet.
	JobPending JobStatus = "pending"

	// JobPartial indicates the job finished with results for only some
	// of the requested projects. Partial results are accepted as
	// terminal.
	JobPartial JobStatus = "partial"

	// JobCompleted indicates the job finished with the full result set.
	JobCompleted JobStatus = "completed"
)

// String returns the string representation of the status.
// This implements the fmt.Stringer interface.
func (s JobStatus) String() string {
	return string(s)
}

// Terminal reports whether the status ends the polling loop once data is
// available. The tool does not distinguish "good enough" from "fully
// done": partial counts.
func (s JobStatus) Terminal() bool {
	return s == JobCompleted || s == JobPartial
}
