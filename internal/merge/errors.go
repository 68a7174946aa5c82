package merge

import (
	"fmt"
	"strings"
)

// MissingFileError reports an inclusion directive pointing at a file that
// does not exist. Fatal unless best-effort mode downgrades it to a warning.
type MissingFileError struct {
	Path       string // the path that could not be resolved
	IncludedBy string // the document containing the directive ("" for the root)
}

func (e *MissingFileError) Error() string {
	if e.IncludedBy == "" {
		return fmt.Sprintf("document not found: %s", e.Path)
	}
	return fmt.Sprintf("included file not found: %s (included by %s)", e.Path, e.IncludedBy)
}

// CycleError reports an inclusion chain that revisits an ancestor.
// Always fatal: expanding it would produce an unbounded body.
type CycleError struct {
	Chain []string // the inclusion chain, ending with the repeated document
}

func (e *CycleError) Error() string {
	return "cyclic inclusion: " + strings.Join(e.Chain, " -> ")
}
