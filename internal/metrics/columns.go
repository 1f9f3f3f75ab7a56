package metrics

import (
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/Vitruves/metricalc/internal/models"
)

// classPattern matches "C_<digits>" at the start of a name, followed by the
// end of the name or a separator (space, dash, underscore...). "C_1a" is not
// a class name; "C_1_unharvested" is class 1.
var classPattern = regexp.MustCompile(`^C_(\d+)(?:$|[^0-9A-Za-z])`)

// countPattern is a plain decimal number, optionally with an exponent.
// Hex floats, underscores and the NaN/Inf spellings are rejected.
var countPattern = regexp.MustCompile(`^[+-]?(?:\d+\.?\d*|\.\d+)(?:[eE][+-]?\d+)?$`)

// ClassColumn is a class column of the input table.
type ClassColumn struct {
	Index  int    // numeric suffix, C_<Index>
	Column int    // position in Table.Columns
	Name   string // column name as read
}

// Prefix returns the ClassValue prefix that selects this class's row.
func (c ClassColumn) Prefix() string {
	return "C_" + strconv.Itoa(c.Index)
}

// ParseClassIndex extracts the numeric suffix from a column name or a
// ClassValue cell.
func ParseClassIndex(s string) (int, bool) {
	m := classPattern.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return n, true
}

// DiscoverClassColumns returns the class columns ordered by numeric suffix,
// independent of their order in the file.
func DiscoverClassColumns(columns []string) ([]ClassColumn, error) {
	var classes []ClassColumn
	seen := make(map[int]string)

	for i, name := range columns {
		idx, ok := ParseClassIndex(name)
		if !ok {
			continue
		}
		if prev, dup := seen[idx]; dup {
			return nil, models.ConfigErrorf("columns %q and %q both map to class C_%d", prev, name, idx)
		}
		seen[idx] = name
		classes = append(classes, ClassColumn{Index: idx, Column: i, Name: name})
	}

	if len(classes) == 0 {
		return nil, models.ConfigErrorf("no class columns")
	}

	sort.Slice(classes, func(a, b int) bool {
		return classes[a].Index < classes[b].Index
	})
	return classes, nil
}

// SelectRows picks the ground-truth row of every class, in class order.
// A class without a row, or with more than one, is an error.
func SelectRows(table *models.Table, classes []ClassColumn) ([]int, error) {
	cv := table.ColumnIndex(models.ClassValueColumn)
	if cv < 0 {
		return nil, models.DataErrorf("missing %s column", models.ClassValueColumn)
	}

	position := make(map[int]int, len(classes))
	for i, c := range classes {
		position[c.Index] = i
	}

	rows := make([]int, len(classes))
	for i := range rows {
		rows[i] = -1
	}

	matched := 0
	for r := range table.Rows {
		idx, ok := ParseClassIndex(table.Cell(r, cv))
		if !ok {
			continue
		}
		pos, known := position[idx]
		if !known {
			continue
		}
		if rows[pos] >= 0 {
			return nil, models.DataErrorf("duplicate %s rows for C_%d (rows %d and %d)",
				models.ClassValueColumn, idx, rows[pos]+1, r+1)
		}
		rows[pos] = r
		matched++
	}

	if matched == 0 {
		return nil, models.DataErrorf("no matching %s rows", models.ClassValueColumn)
	}

	var missing []string
	for i, r := range rows {
		if r < 0 {
			missing = append(missing, classes[i].Prefix())
		}
	}
	if len(missing) > 0 {
		return nil, models.DataErrorf("missing %s row for %s", models.ClassValueColumn, strings.Join(missing, ", "))
	}

	return rows, nil
}

// ParseCount converts a class-column cell to a count. Decimal commas are
// accepted ("12,0" is 12); fractional, negative and non-finite values are not.
func ParseCount(value string) (int, error) {
	s := strings.ReplaceAll(strings.TrimSpace(value), ",", ".")
	if !countPattern.MatchString(s) {
		return 0, models.DataErrorf("non-numeric value %q", value)
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, models.DataErrorf("non-numeric value %q", value)
	}
	if f != math.Trunc(f) {
		return 0, models.DataErrorf("non-integer count %q", value)
	}
	if f < 0 {
		return 0, models.DataErrorf("negative count %q", value)
	}
	if f > math.MaxInt32 {
		return 0, models.DataErrorf("count %q out of range", value)
	}
	return int(f), nil
}
