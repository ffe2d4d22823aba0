package reconcile

import (
	"github.com/pmezard/go-difflib/difflib"
)

// Diff renders a unified diff between two versions of a document.
func Diff(from, to, fromName, toName string) (string, error) {
	return difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(from),
		B:        difflib.SplitLines(to),
		FromFile: fromName,
		ToFile:   toName,
		Context:  3,
	})
}
