package reporter

import (
	"fmt"
	"io"

	"hervor/internal/contract"
)

// WriteCoverage prints a contract coverage summary followed by the
// operations the bundle never exercises.
func WriteCoverage(w io.Writer, rep contract.CoverageReport) error {
	if _, err := fmt.Fprintf(w, "contract coverage: %d/%d operations (%.1f%%)\n", rep.Covered, rep.Total, rep.Percent); err != nil {
		return err
	}
	for _, op := range rep.UncoveredSet {
		if _, err := fmt.Fprintf(w, "  uncovered: %s\n", op); err != nil {
			return err
		}
	}
	return nil
}
