package persist

import (
	"fmt"
	"strings"
	"time"
)

// maxRecordedErrors caps the error detail kept per run
const maxRecordedErrors = 5

// Result is the outcome of one durability run
type Result struct {
	RunID   string
	Records int

	// Seeding phase
	Written     int
	WriteErrors int

	// Mutating phase
	Deleted      int
	DeleteErrors int

	// OracleSize is the number of keys expected to survive the restart
	OracleSize int

	// Verifying phase
	Verified         int
	ValidationErrors int
	ReadErrors       int

	// Errors holds the first few recorded error strings for diagnostics
	Errors []string

	Elapsed time.Duration
}

// recordError keeps the first maxRecordedErrors error samples
func (r *Result) recordError(context string, err error) {
	if len(r.Errors) < maxRecordedErrors {
		r.Errors = append(r.Errors, fmt.Sprintf("%s: %v", context, err))
	}
}

// PersistenceRate is the ratio of successfully re-validated keys to the
// oracle size. A passing run requires exactly 1.0.
func (r *Result) PersistenceRate() float64 {
	if r.OracleSize == 0 {
		return 0
	}
	return float64(r.Verified) / float64(r.OracleSize)
}

// Passed reports overall success: zero validation errors and zero read
// errors after the restart.
func (r *Result) Passed() bool {
	return r.ValidationErrors == 0 && r.ReadErrors == 0
}

// String returns a formatted string representation of the run result
func (r *Result) String() string {
	var sb strings.Builder

	addSection := func(title string) {
		sb.WriteString("\n")
		sb.WriteString(fmt.Sprintf("%s\n", strings.ToUpper(title)))
	}

	addField := func(name, value string) {
		sb.WriteString(fmt.Sprintf("  %-22s: %s\n", name, value))
	}

	addSection("Durability Run")
	addField("Run ID", r.RunID)
	addField("Records", fmt.Sprintf("%d", r.Records))
	addField("Elapsed", r.Elapsed.String())

	addSection("Phases")
	addField("Written", fmt.Sprintf("%d ok / %d failed", r.Written, r.WriteErrors))
	addField("Deleted", fmt.Sprintf("%d ok / %d failed", r.Deleted, r.DeleteErrors))
	addField("Verified", fmt.Sprintf("%d of %d", r.Verified, r.OracleSize))

	addSection("Verdict")
	addField("Persistence Rate", fmt.Sprintf("%.2f %%", r.PersistenceRate()*100))
	addField("Validation Errors", fmt.Sprintf("%d", r.ValidationErrors))
	addField("Read Errors", fmt.Sprintf("%d", r.ReadErrors))
	addField("Passed", fmt.Sprintf("%t", r.Passed()))

	if len(r.Errors) > 0 {
		addSection("Recorded Errors")
		for i, e := range r.Errors {
			addField(fmt.Sprintf("%d", i+1), e)
		}
	}

	return sb.String()
}
