package pipeline

import (
	"fmt"
	"strings"

	"github.com/TobiSchelling/CollectionsReport/internal/database"
)

// RunMarkdown renders the run ledger entry shown by the viewer.
func RunMarkdown(r *Result, run *database.Run) string {
	var sections []string

	status := "Completed"
	if r.Failed() {
		status = "Failed"
	}
	sections = append(sections, fmt.Sprintf("## %s\n\nRun `%s`", status, run.ID))

	var steps []string
	for _, s := range r.Steps {
		if s.Err != nil {
			steps = append(steps, fmt.Sprintf("- **%s**: error: %v", s.Name, s.Err))
			continue
		}
		steps = append(steps, fmt.Sprintf("- **%s**: %s", s.Name, s.Summary))
	}
	if len(steps) == 0 {
		steps = append(steps, "- No steps ran.")
	}
	sections = append(sections, "## Steps\n\n"+strings.Join(steps, "\n"))

	counts := []string{
		fmt.Sprintf("- Accounts: %d", run.AccountCount),
		fmt.Sprintf("- Events: %d", run.EventCount),
		fmt.Sprintf("- Rejected rows: %d", run.RejectedCount),
		fmt.Sprintf("- Orphaned events: %d", run.OrphanCount),
		fmt.Sprintf("- Summaries: %d", run.SummaryCount),
	}
	sections = append(sections, "## Counts\n\n"+strings.Join(counts, "\n"))

	if run.ExportPath != nil {
		sections = append(sections, fmt.Sprintf("## Export\n\n`%s`", *run.ExportPath))
	}

	return strings.Join(sections, "\n\n")
}
