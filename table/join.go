package table

import (
	"fmt"
	"strings"
)

// JoinKind selects which unmatched rows survive a join.
type JoinKind int

const (
	// Inner keeps only rows of the left table that match the right table.
	Inner JoinKind = iota
	// Left keeps every row of the left table. Unmatched rows get empty cells
	// for the right table's columns.
	Left
)

func (k JoinKind) String() string {
	switch k {
	case Inner:
		return "inner"
	case Left:
		return "left"
	}

	return fmt.Sprintf("JoinKind(%d)", int(k))
}

// Suffixes appended to non-key columns that appear in both tables.
const (
	LeftSuffix  = "_x"
	RightSuffix = "_y"
)

// Join merges two tables where leftOn[k] equals rightOn[k] for every k. The
// result holds every left column followed by every right column, except that
// a right key column named the same as its paired left key is emitted only
// once. Other names present on both sides receive LeftSuffix and RightSuffix.
// Rows follow the order of the left table; a left row matching several right
// rows is repeated once per match, in right table order.
func Join(left, right *Table, leftOn, rightOn []string, kind JoinKind) (*Table, error) {
	if len(leftOn) != len(rightOn) {
		return nil, fmt.Errorf("%s join: %d left keys but %d right keys", kind, len(leftOn), len(rightOn))
	}
	if len(leftOn) == 0 {
		return nil, fmt.Errorf("%s join: no keys", kind)
	}

	leftIdx := make([]int, len(leftOn))
	rightIdx := make([]int, len(rightOn))
	sharedKeys := make(map[string]struct{})
	for k := range leftOn {
		if leftIdx[k] = left.Col(leftOn[k]); leftIdx[k] < 0 {
			return nil, fmt.Errorf("%s join: left table has no column %q", kind, leftOn[k])
		}
		if rightIdx[k] = right.Col(rightOn[k]); rightIdx[k] < 0 {
			return nil, fmt.Errorf("%s join: right table has no column %q", kind, rightOn[k])
		}
		if leftOn[k] == rightOn[k] {
			sharedKeys[rightOn[k]] = struct{}{}
		}
	}

	// Right columns that make it into the output
	rightKeep := make([]int, 0, len(right.Header))
	for j, col := range right.Header {
		if _, shared := sharedKeys[col]; shared {
			continue
		}
		rightKeep = append(rightKeep, j)
	}

	rightNames := make(map[string]struct{}, len(rightKeep))
	for _, j := range rightKeep {
		rightNames[right.Header[j]] = struct{}{}
	}

	header := make([]string, 0, len(left.Header)+len(rightKeep))
	for _, col := range left.Header {
		if _, clash := rightNames[col]; clash {
			if _, shared := sharedKeys[col]; !shared {
				col += LeftSuffix
			}
		}
		header = append(header, col)
	}
	for _, j := range rightKeep {
		col := right.Header[j]
		if left.Has(col) {
			col += RightSuffix
		}
		header = append(header, col)
	}

	// Hash the right table by key
	lookup := make(map[string][]int, len(right.Rows))
	for i, row := range right.Rows {
		key := joinKey(row, rightIdx)
		lookup[key] = append(lookup[key], i)
	}

	out := New(header...)
	for _, row := range left.Rows {
		matches := lookup[joinKey(row, leftIdx)]

		if len(matches) == 0 {
			if kind == Left {
				newRow := make([]string, 0, len(header))
				newRow = append(newRow, row...)
				newRow = append(newRow, make([]string, len(rightKeep))...)
				out.Rows = append(out.Rows, newRow)
			}
			continue
		}

		for _, m := range matches {
			newRow := make([]string, 0, len(header))
			newRow = append(newRow, row...)
			for _, j := range rightKeep {
				newRow = append(newRow, right.Rows[m][j])
			}
			out.Rows = append(out.Rows, newRow)
		}
	}

	return out, nil
}

// InnerJoin is Join with the same key names on both sides.
func InnerJoin(left, right *Table, on ...string) (*Table, error) {
	return Join(left, right, on, on, Inner)
}

// LeftJoin is Join with the same key names on both sides, keeping every left
// row.
func LeftJoin(left, right *Table, on ...string) (*Table, error) {
	return Join(left, right, on, on, Left)
}

func joinKey(row []string, idx []int) string {
	parts := make([]string, len(idx))
	for k, j := range idx {
		parts[k] = row[j]
	}

	return strings.Join(parts, "\x00")
}
