package output

import (
	"fmt"
	"math"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/gyeh/npi-match/internal/match"
)

// MethodCount is the number of rows resolved by one match method.
type MethodCount struct {
	Method  match.Method `json:"method"`
	Count   int          `json:"count"`
	Percent int          `json:"percent"`
}

// Summary aggregates a run's results.
type Summary struct {
	Total          int           `json:"total"`
	Matched        int           `json:"matched"`
	MatchedPercent int           `json:"matched_percent"`
	Methods        []MethodCount `json:"methods"`
}

// Summarize counts matched rows and rows per method. Methods appear in the
// order they were first seen; percentages are rounded to whole numbers.
func Summarize(results []match.Result) Summary {
	s := Summary{Total: len(results), Methods: []MethodCount{}}
	index := make(map[match.Method]int)

	for i := range results {
		r := &results[i]
		if r.Matched() {
			s.Matched++
		}
		method := r.MatchMethod
		if method == "" {
			method = match.MethodNoMatch
		}
		pos, ok := index[method]
		if !ok {
			pos = len(s.Methods)
			index[method] = pos
			s.Methods = append(s.Methods, MethodCount{Method: method})
		}
		s.Methods[pos].Count++
	}

	s.MatchedPercent = percent(s.Matched, s.Total)
	for i := range s.Methods {
		s.Methods[i].Percent = percent(s.Methods[i].Count, s.Total)
	}
	return s
}

func percent(n, total int) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(float64(n) / float64(total) * 100))
}

// RenderSummary draws the summary as a table.
func RenderSummary(s Summary) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.SetTitle("Match summary")
	tw.AppendHeader(table.Row{"", "Providers", "%"})

	tw.AppendRow(table.Row{"Total processed", strconv.Itoa(s.Total), ""})
	tw.AppendRow(table.Row{"Matched", strconv.Itoa(s.Matched), fmt.Sprintf("%d%%", s.MatchedPercent)})
	tw.AppendSeparator()
	for _, m := range s.Methods {
		tw.AppendRow(table.Row{string(m.Method), strconv.Itoa(m.Count), fmt.Sprintf("%d%%", m.Percent)})
	}

	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignLeft},
		{Number: 2, Align: text.AlignRight, AlignHeader: text.AlignLeft},
		{Number: 3, Align: text.AlignRight, AlignHeader: text.AlignLeft},
	})
	return tw.Render()
}
