package cli

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/justsurfingit/hireboard/internal/models"
	"github.com/justsurfingit/hireboard/internal/pagination"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12")).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	footerStyle = lipgloss.NewStyle().Faint(true)
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	statusStyle = map[string]lipgloss.Style{
		models.StatusApplied:   lipgloss.NewStyle().Foreground(lipgloss.Color("7")),
		models.StatusInterview: lipgloss.NewStyle().Foreground(lipgloss.Color("11")),
		models.StatusOffer:     lipgloss.NewStyle().Foreground(lipgloss.Color("10")),
		models.StatusRejected:  lipgloss.NewStyle().Foreground(lipgloss.Color("8")),
	}
)

const maxCell = 40

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("8"))).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		}).
		Headers(headers...)
}

func renderJobs(w io.Writer, snap pagination.Snapshot[models.Job]) {
	t := newTable("ID", "COMPANY", "TITLE", "STATUS", "LOCATION", "ADDED")
	for _, j := range snap.Data {
		status := j.Status
		if st, ok := statusStyle[status]; ok {
			status = st.Render(status)
		}
		t.Row(
			strconv.FormatUint(uint64(j.ID), 10),
			clip(j.Company.Name),
			clip(j.Title),
			status,
			clip(j.Location),
			j.CreatedAt.Format("2006-01-02"),
		)
	}
	renderPage(w, t, snap.PageParams, snap.Filters, snap.Error, len(snap.Data))
}

func renderTemplates(w io.Writer, snap pagination.Snapshot[models.EmailTemplate]) {
	t := newTable("ID", "NAME", "CATEGORY", "SUBJECT")
	for _, tpl := range snap.Data {
		t.Row(strconv.FormatUint(uint64(tpl.ID), 10), clip(tpl.Name), tpl.Category, clip(tpl.Subject))
	}
	renderPage(w, t, snap.PageParams, snap.Filters, snap.Error, len(snap.Data))
}

func renderEvents(w io.Writer, snap pagination.Snapshot[models.JobEvent]) {
	t := newTable("WHEN", "EVENT", "DETAILS")
	for _, e := range snap.Data {
		t.Row(e.CreatedAt.Format("2006-01-02 15:04"), e.EventType, clip(e.Details))
	}
	renderPage(w, t, snap.PageParams, snap.Filters, snap.Error, len(snap.Data))
}

func renderPage(w io.Writer, t *table.Table, p pagination.PageState, f pagination.Filters, errMsg string, rows int) {
	if errMsg != "" {
		fmt.Fprintln(w, errorStyle.Render("error: "+errMsg))
	}
	if rows == 0 {
		fmt.Fprintln(w, "No results.")
	} else {
		fmt.Fprintln(w, t.Render())
	}
	fmt.Fprintln(w, footerStyle.Render(footer(p, f)))
}

func footer(p pagination.PageState, f pagination.Filters) string {
	parts := []string{
		fmt.Sprintf("page %d/%d", p.Page, max(p.TotalPages, 1)),
		fmt.Sprintf("%d results", p.TotalRows),
	}
	if f.SearchQuery != "" {
		parts = append(parts, fmt.Sprintf("search %q", f.SearchQuery))
	}
	for _, k := range sortedKeys(f.CustomFilters) {
		parts = append(parts, fmt.Sprintf("%s=%v", k, f.CustomFilters[k]))
	}
	return strings.Join(parts, " | ")
}

func clip(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	if r := []rune(s); len(r) > maxCell {
		return string(r[:maxCell-3]) + "..."
	}
	return s
}
