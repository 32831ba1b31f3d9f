// Package validate runs a read-only checklist against the provisioned ETL
// stack and aggregates the results into a point-in-time snapshot.
//
// Checks are isolated bulkheads: an error inside one check becomes that
// check's fail result and never aborts the rest of the battery.
package validate

import "time"

// Result is the outcome of a single check.
type Result string

const (
	ResultPass    Result = "pass"
	ResultFail    Result = "fail"
	ResultSkipped Result = "skipped"
)

// Check is one named probe of one provisioned resource.
type Check struct {
	Name    string `json:"name"`
	Result  Result `json:"result"`
	Message string `json:"message"`
}

// Snapshot is an ordered collection of check results gathered in one
// invocation. It is derived entirely from current provider state and has
// no persisted identity.
type Snapshot struct {
	Taken  time.Time `json:"taken"`
	Checks []Check   `json:"checks"`
	OK     bool      `json:"ok"`
}

// Counts returns how many checks passed, failed, and were skipped.
func (s *Snapshot) Counts() (passed, failed, skipped int) {
	for _, c := range s.Checks {
		switch c.Result {
		case ResultPass:
			passed++
		case ResultFail:
			failed++
		case ResultSkipped:
			skipped++
		}
	}
	return passed, failed, skipped
}
