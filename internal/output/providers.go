package output

import (
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/gyeh/npi-match/internal/npi"
)

// RenderProviders draws registry records as a table, one row per provider.
func RenderProviders(providers []npi.Provider) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"#", "NPI", "Type", "Name", "Address", "Purpose", "Phone", "Taxonomy"})

	for i := range providers {
		p := &providers[i]
		var addr, purpose, phone, taxonomy string
		if a := p.FirstAddress(); a != nil {
			addr = a.Format()
			purpose = string(a.Purpose)
			phone = a.FormattedPhone()
		}
		if tax := p.PrimaryTaxonomy(); tax != nil {
			taxonomy = tax.Desc
		}
		tw.AppendRow(table.Row{
			strconv.Itoa(i + 1),
			p.Number,
			p.Kind(),
			p.FormattedName(),
			addr,
			purpose,
			phone,
			taxonomy,
		})
	}

	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignRight},
		{Number: 5, WidthMax: 48},
		{Number: 8, WidthMax: 40},
	})
	return tw.Render()
}
