package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/okian/collegepath/internal/domain/model"
	"github.com/okian/collegepath/internal/domain/types"
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).MarginBottom(1)
	headerStyle = lipgloss.NewStyle().Bold(true).Underline(true)
	mutedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))

	tierStyles = map[string]lipgloss.Style{
		string(model.TierExcellent): lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true),
		string(model.TierGood):      lipgloss.NewStyle().Foreground(lipgloss.Color("11")),
		string(model.TierFair):      lipgloss.NewStyle().Foreground(lipgloss.Color("7")),
	}
)

// column is one table column.
type column struct {
	title string
	width int
}

func cell(c column, style lipgloss.Style, text string) string {
	if r := []rune(text); len(r) > c.width {
		text = string(r[:c.width-1]) + "…"
	}
	return style.Width(c.width + 2).Render(text)
}

func row(cols []column, styles []lipgloss.Style, values []string) string {
	cells := make([]string, len(cols))
	for i, c := range cols {
		cells[i] = cell(c, styles[i], values[i])
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, cells...)
}

func header(cols []column) string {
	styles := make([]lipgloss.Style, len(cols))
	values := make([]string, len(cols))
	for i, c := range cols {
		styles[i] = headerStyle
		values[i] = c.title
	}
	return row(cols, styles, values)
}

func renderRecommendation(rec types.Recommendation) string {
	var b strings.Builder

	who := "Recommendations"
	if rec.Student != "" {
		who = "Recommendations for " + rec.Student
	}
	b.WriteString(titleStyle.Render(fmt.Sprintf("%s (%s, %s)", who, rec.Stream, rec.Region)))
	b.WriteString("\n")

	if rec.Count == 0 {
		b.WriteString(mutedStyle.Render("No college in the catalog accepts this stream."))
		b.WriteString("\n")
		return b.String()
	}

	cols := []column{
		{"#", 2}, {"College", 34}, {"Location", 18}, {"Match", 6}, {"Tier", 9}, {"Fees", 18}, {"Placement", 20},
	}
	b.WriteString(header(cols))
	b.WriteString("\n")
	plain := lipgloss.NewStyle()
	for i, c := range rec.Colleges {
		tier := tierStyles[c.Tier]
		b.WriteString(row(cols,
			[]lipgloss.Style{mutedStyle, plain, plain, tier, tier, plain, plain},
			[]string{strconv.Itoa(i + 1), c.Name, c.Location, strconv.Itoa(c.Match) + "%", c.Tier, c.Fees, c.Placement},
		))
		b.WriteString("\n")
	}
	return b.String()
}

func renderCatalog(colleges []types.College) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(fmt.Sprintf("%d colleges", len(colleges))))
	b.WriteString("\n")

	cols := []column{
		{"ID", 3}, {"College", 34}, {"Location", 18}, {"Rating", 6}, {"Min %ile", 8}, {"Streams", 24},
	}
	b.WriteString(header(cols))
	b.WriteString("\n")
	plain := lipgloss.NewStyle()
	styles := []lipgloss.Style{mutedStyle, plain, plain, plain, plain, plain}
	for _, c := range colleges {
		b.WriteString(row(cols, styles, []string{
			c.ID,
			c.Name,
			c.Location,
			strconv.FormatFloat(c.Rating, 'f', 1, 64),
			strconv.FormatFloat(c.MinPercentile, 'f', -1, 64),
			strings.Join(c.Streams, ", "),
		}))
		b.WriteString("\n")
	}
	return b.String()
}

func printFieldErrors(w io.Writer, fields map[string]string) {
	for _, k := range sortedKeys(fields) {
		fmt.Fprintln(w, errorStyle.Render(fmt.Sprintf("  %s: %s", k, fields[k])))
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
