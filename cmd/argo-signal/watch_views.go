package main

import (
	"fmt"
	"sort"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"
	"github.com/rxtech-lab/argo-signal/internal/types"
)

var (
	TitleStyle = lipgloss.NewStyle().Bold(true)

	HelpStyle = lipgloss.NewStyle().Faint(true)

	ErrorStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196"))
)

// FormatSide marks the held side with an arrow.
func FormatSide(side types.PositionSide) string {
	switch side {
	case types.PositionSideLong:
		return string(side) + " ▲"
	case types.PositionSideShort:
		return string(side) + " ▼"
	default:
		return string(side)
	}
}

func NewRecommendationTable() table.Model {
	columns := []table.Column{
		{Title: "Symbol", Width: 10},
		{Title: "Side", Width: 9},
		{Title: "Signal", Width: 14},
		{Title: "Entry", Width: 12},
		{Title: "Stop Loss", Width: 12},
		{Title: "Take Profit", Width: 12},
		{Title: "Quantity", Width: 12},
		{Title: "Bar", Width: 17},
		{Title: "Seq", Width: 6},
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(10),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		BorderBottom(true).
		Bold(true)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("229")).
		Background(lipgloss.Color("57")).
		Bold(false)

	t.SetStyles(s)

	return t
}

// UpdateTableRows renders one row per source, ordered by source.
func UpdateTableRows(t table.Model, latest map[string]types.Recommendation) table.Model {
	sources := make([]string, 0, len(latest))
	for source := range latest {
		sources = append(sources, source)
	}

	sort.Strings(sources)

	rows := make([]table.Row, 0, len(latest))

	for _, source := range sources {
		rec := latest[source]

		signal := string(rec.Signal)
		if !rec.Valid {
			signal = "warming up"
		}

		rows = append(rows, table.Row{
			rec.Symbol,
			FormatSide(rec.Side),
			signal,
			price(rec.EntryPrice),
			price(rec.StopLoss),
			price(rec.StopProfit),
			rec.Quantity.String(),
			rec.UpdateTime.UTC().Format("2006-01-02 15:04"),
			fmt.Sprintf("%d", rec.Seq),
		})
	}

	t.SetRows(rows)

	return t
}

func price(v float64) string {
	if v == 0 {
		return "-"
	}

	return fmt.Sprintf("%.4f", v)
}
