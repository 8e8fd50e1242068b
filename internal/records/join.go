package records

import "github.com/gyeh/npi-match/internal/match"

// Join merges each record with its match result. The header is every original
// column in original order followed by the result columns; a result column
// that shares a name with an original column replaces that column's value in
// place instead of being appended.
//
// Only the first len(results) records are joined, so a run that stopped early
// still produces a well-formed table.
func Join(t *Table, results []match.Result) (header []string, rows [][]string) {
	header = append([]string(nil), t.Header...)

	// Result column position -> output column position.
	target := make([]int, len(match.Columns))
	for i, col := range match.Columns {
		if pos, ok := t.Column(col); ok {
			target[i] = pos
			continue
		}
		target[i] = len(header)
		header = append(header, col)
	}

	n := min(len(results), len(t.Records))
	rows = make([][]string, n)
	for i := range n {
		row := make([]string, len(header))
		copy(row, t.Records[i].Values[:min(len(t.Records[i].Values), len(t.Header))])
		for j, v := range results[i].Values() {
			row[target[j]] = v
		}
		rows[i] = row
	}
	return header, rows
}
