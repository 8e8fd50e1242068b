package records

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gyeh/npi-match/internal/match"
)

func strPtr(s string) *string { return &s }

func TestJoinAppendsResultColumns(t *testing.T) {
	tbl, err := Read(strings.NewReader(sampleCSV), Options{})
	require.NoError(t, err)

	results := []match.Result{
		{OriginalIndex: 0, NPI: strPtr("1234567893"), MatchMethod: match.MethodExact, TotalMatchesFound: 1, FinalMatchScore: 1, OriginalName: "Jane Doe", OriginalZip: "10001"},
		{OriginalIndex: 1, MatchMethod: match.MethodNoMatch, OriginalName: "John Smith", OriginalZip: "02108"},
	}

	header, rows := Join(tbl, results)

	require.Len(t, header, 5+len(match.Columns))
	assert.Equal(t, tbl.Header, header[:5])
	assert.Equal(t, match.Columns, header[5:])

	require.Len(t, rows, 2)
	assert.Equal(t, "P-1", rows[0][0])
	assert.Equal(t, "Cardiology", rows[0][4])
	assert.Equal(t, "1234567893", rows[0][6])
	assert.Equal(t, "EXACT", rows[0][7])
	assert.Equal(t, "", rows[1][6])
	assert.Equal(t, "NO_MATCH", rows[1][7])
}

func TestJoinResultColumnOverridesInPlace(t *testing.T) {
	in := "NPI,First Name,Last Name,Zip\nold-value,Jane,Doe,10001\n"
	tbl, err := Read(strings.NewReader(in), Options{})
	require.NoError(t, err)

	header, rows := Join(tbl, []match.Result{{NPI: strPtr("1234567893"), MatchMethod: match.MethodExact}})

	assert.Equal(t, "NPI", header[0])
	assert.Len(t, header, 4+len(match.Columns)-1)
	assert.NotContains(t, header[4:], "NPI")
	assert.Equal(t, "1234567893", rows[0][0])
}

func TestJoinPartialResults(t *testing.T) {
	tbl, err := Read(strings.NewReader(sampleCSV), Options{})
	require.NoError(t, err)

	_, rows := Join(tbl, []match.Result{{MatchMethod: match.MethodNoMatch}})
	assert.Len(t, rows, 1)

	_, rows = Join(tbl, nil)
	assert.Empty(t, rows)
}

func TestJoinDropsCellsBeyondHeader(t *testing.T) {
	in := "First Name,Last Name,Zip\nJane,Doe,10001,extra\n"
	tbl, err := Read(strings.NewReader(in), Options{})
	require.NoError(t, err)

	header, rows := Join(tbl, []match.Result{{MatchMethod: match.MethodNoMatch}})

	require.Len(t, rows[0], len(header))
	assert.Equal(t, "0", rows[0][3], "first result column follows the original columns")
}
