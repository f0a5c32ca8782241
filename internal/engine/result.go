package engine

import (
	"fmt"
	"strings"
	"time"
)

// Result is the final status of a run.
type Result struct {
	Success         bool
	State           State
	TablesAttempted int
	TablesMigrated  int
	TablesSkipped   int
	RowsCopied      int64
	FailedTables    []string
	Verification    []VerifyResult
	Mismatches      []string
	Err             error
	RestoreErr      error
	Duration        time.Duration
}

// Summary renders the result as a short multi-line report.
func (r Result) Summary() string {
	var b strings.Builder
	status := "SUCCESS"
	if !r.Success {
		status = "FAILED"
	}
	fmt.Fprintf(&b, "Migration %s in %s\n", status, r.Duration.Round(time.Millisecond))
	fmt.Fprintf(&b, "Tables: %d attempted, %d migrated, %d schema-only\n", r.TablesAttempted, r.TablesMigrated, r.TablesSkipped)
	fmt.Fprintf(&b, "Rows copied: %d\n", r.RowsCopied)
	if len(r.FailedTables) > 0 {
		fmt.Fprintf(&b, "Failed tables: %s\n", strings.Join(r.FailedTables, ", "))
	}
	if len(r.Verification) > 0 {
		fmt.Fprintf(&b, "Verification: %d/%d matched\n", len(r.Verification)-len(r.Mismatches), len(r.Verification))
		for _, v := range r.Verification {
			if !v.Matched {
				fmt.Fprintf(&b, "  %s\n", v)
			}
		}
	}
	if r.Err != nil {
		fmt.Fprintf(&b, "Error: %v\n", r.Err)
	}
	if r.RestoreErr != nil {
		fmt.Fprintf(&b, "Constraint restore error: %v\n", r.RestoreErr)
	}
	return strings.TrimRight(b.String(), "\n")
}
