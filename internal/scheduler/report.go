package scheduler

// Verdict is the overall outcome of a run.
type Verdict string

const (
	VerdictSucceeded Verdict = "succeeded"
	VerdictFailed    Verdict = "failed"
)

// Report summarizes a finished run. Tasks are in topological order.
type Report struct {
	Verdict Verdict
	Tasks   []TaskState
	// FailedTask and Err describe the first failure, if any.
	FailedTask string
	Err        error
	Cancelled  bool
}

// Count returns how many tasks ended in status.
func (r *Report) Count(status Status) int {
	n := 0
	for _, t := range r.Tasks {
		if t.Status == status {
			n++
		}
	}
	return n
}

// Task returns the final state of id.
func (r *Report) Task(id string) (TaskState, bool) {
	for _, t := range r.Tasks {
		if t.ID == id {
			return t, true
		}
	}
	return TaskState{}, false
}
