package main

import (
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/newthinker/stockwatch/internal/dashboard"
)

func newTable(w io.Writer) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	return t
}

// renderRows prints the watchlist table. Gains are green and losses red.
func renderRows(w io.Writer, rows []dashboard.WatchRow) {
	if len(rows) == 0 {
		fmt.Fprintln(w, "watchlist is empty")
		return
	}

	t := newTable(w)
	t.AppendHeader(table.Row{"#", "Symbol", "Name", "Price", "Change", "Change %"})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 4, Align: text.AlignRight},
		{Number: 5, Align: text.AlignRight},
		{Number: 6, Align: text.AlignRight},
	})

	for i, r := range rows {
		if !r.Available {
			t.AppendRow(table.Row{i + 1, r.Symbol, text.FgHiBlack.Sprint(r.Error), "-", "-", "-"})
			continue
		}
		color := text.FgGreen
		if !r.Positive {
			color = text.FgRed
		}
		t.AppendRow(table.Row{
			i + 1,
			r.Symbol,
			r.Name,
			r.PriceText,
			color.Sprint(r.ChangeText),
			color.Sprint(dashboard.FormatPercent(r.ChangePercent)),
		})
	}
	t.Render()
}

func renderSymbols(w io.Writer, symbols []string) {
	if len(symbols) == 0 {
		fmt.Fprintln(w, "watchlist is empty")
		return
	}
	t := newTable(w)
	t.AppendHeader(table.Row{"#", "Symbol"})
	for i, s := range symbols {
		t.AppendRow(table.Row{i + 1, s})
	}
	t.Render()
}

func renderCompany(w io.Writer, o *dashboard.CompanyOverview) {
	star := "☆ not watched"
	if o.Watched {
		star = "★ watched"
	}
	fmt.Fprintf(w, "%s (%s)  %s\n\n", o.Name, o.Symbol, star)

	fin := newTable(w)
	fin.SetTitle("Latest annual financials")
	fin.AppendHeader(table.Row{"Fiscal date", "Revenue", "Gross profit", "EPS"})
	if o.Financials == nil {
		fin.AppendRow(table.Row{"-", "-", "-", "-"})
	} else {
		f := o.Financials
		fin.AppendRow(table.Row{f.Date.Format("2006-01-02"), f.RevenueText, f.GrossProfitText, fmt.Sprintf("%.2f", f.EPS)})
	}
	fin.Render()

	for _, warning := range o.Warnings {
		fmt.Fprintln(w, text.FgYellow.Sprint(warning))
	}

	if len(o.History) == 0 {
		return
	}
	fmt.Fprintln(w)
	hist := newTable(w)
	hist.SetTitle(fmt.Sprintf("Closing prices, last %d sessions", len(o.History)))
	hist.AppendHeader(table.Row{"Date", "Close"})
	hist.SetColumnConfigs([]table.ColumnConfig{{Number: 2, Align: text.AlignRight}})
	for _, p := range o.History {
		hist.AppendRow(table.Row{p.Date.Format("2006-01-02"), dashboard.FormatMoney(p.Close, 2)})
	}
	hist.Render()
}
