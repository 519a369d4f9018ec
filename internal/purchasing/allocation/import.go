package allocation

import (
	"regexp"
	"strings"

	"golang.org/x/text/cases"

	"github.com/odyssey-erp/odyssey-po/internal/purchasing/amount"
)

// NoValidDataMessage is shown when pasted text yields no allocations.
const NoValidDataMessage = "no valid allocation rows found; expected one row per project as \"project id<TAB>quantity\", e.g.\nP001\t6\nP002\t4"

var (
	columnSeparator = regexp.MustCompile(`\t| {2,}`)
	headerKeywords  = []string{"案件", "project", "配分", "allocated"}
)

// ImportFromText parses clipboard rows of "projectId<TAB>qty". Columns may
// also be separated by two or more spaces. A first line containing a header
// keyword is skipped. Rows without a project id or with a non-numeric or
// non-positive quantity are dropped.
func ImportFromText(raw string) Set {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return Set{}
	}
	out := Set{}
	for i, line := range strings.Split(trimmed, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if i == 0 && isHeader(line) {
			continue
		}
		cols := splitColumns(line)
		if len(cols) < 2 {
			continue
		}
		projectID := cols[0]
		if projectID == "" || !amount.IsNumeric(cols[1]) {
			continue
		}
		qty := amount.Parse(cols[1])
		if !qty.IsPositive() {
			continue
		}
		out = append(out, Allocation{ProjectID: projectID, Qty: qty})
	}
	return out
}

func splitColumns(line string) []string {
	parts := columnSeparator.Split(line, -1)
	cols := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			cols = append(cols, p)
		}
	}
	return cols
}

func isHeader(line string) bool {
	fold := cases.Fold()
	folded := fold.String(line)
	for _, kw := range headerKeywords {
		if strings.Contains(folded, fold.String(kw)) {
			return true
		}
	}
	return false
}
