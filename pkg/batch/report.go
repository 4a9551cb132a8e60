package batch

import (
	"time"

	"speechbatch/pkg/tasks"
)

// Result is the outcome of one task.
type Result struct {
	Task     tasks.Task
	Path     string // written path, empty on failure
	Bytes    int
	Format   string // format the provider produced
	Duration time.Duration
	Err      error
}

// OK reports whether the task produced its file.
func (r Result) OK() bool {
	return r.Err == nil
}

// Report aggregates one batch run.
type Report struct {
	RunID    string
	Engine   string
	Locale   string
	Started  time.Time
	Finished time.Time
	Results  []Result
	Pending  []tasks.Task // tasks never attempted because the run halted or was cancelled
}

// Complete reports whether every task of the list was attempted.
func (r *Report) Complete() bool {
	return len(r.Pending) == 0
}

// Total returns the number of attempted tasks.
func (r *Report) Total() int {
	return len(r.Results)
}

// Succeeded returns the number of tasks that produced a file.
func (r *Report) Succeeded() int {
	n := 0
	for _, res := range r.Results {
		if res.OK() {
			n++
		}
	}
	return n
}

// Failed returns the failed results in run order.
func (r *Report) Failed() []Result {
	var out []Result
	for _, res := range r.Results {
		if !res.OK() {
			out = append(out, res)
		}
	}
	return out
}

// OK reports whether every attempted task succeeded.
func (r *Report) OK() bool {
	return r.Succeeded() == r.Total()
}

// Bytes returns the total size of all written files.
func (r *Report) Bytes() int {
	n := 0
	for _, res := range r.Results {
		n += res.Bytes
	}
	return n
}
