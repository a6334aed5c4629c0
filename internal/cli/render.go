package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/leadreach/leadreach/internal/model"
	"github.com/leadreach/leadreach/internal/service"
)

// styles are bound to the output's renderer, so pipes and files get
// plain text.
type styles struct {
	title   lipgloss.Style
	muted   lipgloss.Style
	success lipgloss.Style
	label   lipgloss.Style
	value   lipgloss.Style
	card    lipgloss.Style
	border  lipgloss.Style
}

func newStyles(w io.Writer) styles {
	r := lipgloss.NewRenderer(w)
	accent := lipgloss.AdaptiveColor{Light: "#4F46E5", Dark: "#818CF8"}
	return styles{
		title:   r.NewStyle().Bold(true).Foreground(accent),
		muted:   r.NewStyle().Faint(true),
		success: r.NewStyle().Bold(true).Foreground(lipgloss.Color("2")),
		label:   r.NewStyle().Faint(true),
		value:   r.NewStyle().Bold(true),
		card: r.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(accent).
			Padding(0, 1).
			MarginRight(1),
		border: r.NewStyle().Foreground(accent),
	}
}

var printer = message.NewPrinter(language.English)

// number formats n with thousands separators.
func number(n int) string {
	return printer.Sprintf("%d", n)
}

func renderStats(w io.Writer, st styles, stats service.Stats) {
	cards := []string{
		st.card.Render(st.label.Render("Total Groups") + "\n" + st.value.Render(number(stats.TotalGroups))),
		st.card.Render(st.label.Render("Total Businesses") + "\n" + st.value.Render(number(stats.TotalBusinesses))),
		st.card.Render(st.label.Render("This Month") + "\n" + st.value.Render("+"+number(stats.ThisMonth))),
	}
	fmt.Fprintln(w, lipgloss.JoinHorizontal(lipgloss.Top, cards...))
}

func renderGroupCards(w io.Writer, st styles, groups []model.BusinessGroup) {
	for i := range groups {
		g := &groups[i]
		body := strings.Join([]string{
			st.title.Render(g.Name),
			st.label.Render("Keywords: ") + strings.Join(g.Keywords, ", "),
			st.label.Render("Cities:   ") + strings.Join(g.Cities, ", "),
			st.value.Render(number(g.BusinessCount)) + st.muted.Render(" businesses found"),
			st.muted.Render(formatDate(g) + "  id: " + g.ID),
		}, "\n")
		fmt.Fprintln(w, st.card.Render(body))
	}
}

func renderGroupTable(w io.Writer, st styles, groups []model.BusinessGroup) {
	rows := make([][]string, 0, len(groups))
	for i := range groups {
		g := &groups[i]
		rows = append(rows, []string{
			g.ID,
			g.Name,
			strings.Join(g.Keywords, ", "),
			strings.Join(g.Cities, ", "),
			number(g.BusinessCount),
			formatDate(g),
		})
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(st.border).
		Headers("ID", "Group Name", "Keywords", "Cities", "Businesses", "Created").
		Rows(rows...)
	fmt.Fprintln(w, t.Render())
}

func renderFooter(w io.Writer, st styles, shown, total int, query string) {
	line := fmt.Sprintf("Showing %d of %d groups", shown, total)
	if query != "" {
		line += fmt.Sprintf(" matching %q", query)
	}
	fmt.Fprintln(w, st.muted.Render(line))
}

func renderDetails(w io.Writer, st styles, details *model.GroupDetails) {
	header := strings.Join([]string{
		st.title.Render(details.Export.Name),
		st.label.Render("Keywords: ") + strings.Join(details.Export.Keywords, ", "),
		st.label.Render("Cities:   ") + strings.Join(details.Export.Cities, ", "),
		st.label.Render("Total Businesses: ") + st.value.Render(number(details.Export.ActualCount)),
	}, "\n")
	fmt.Fprintln(w, st.card.Render(header))

	if len(details.Businesses) == 0 {
		fmt.Fprintln(w, st.muted.Render("No businesses found in this group"))
		return
	}

	rows := make([][]string, 0, len(details.Businesses))
	for i := range details.Businesses {
		b := &details.Businesses[i]
		website := b.DisplayWebsite()
		if website == "" {
			website = "No website"
		}
		phone := b.Phone
		if phone == "" {
			phone = "No phone"
		}
		rows = append(rows, []string{b.Name, website, phone, b.Address})
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(st.border).
		Headers("Business Name", "Website", "Phone", "Address").
		Rows(rows...)
	fmt.Fprintln(w, st.value.Render(fmt.Sprintf("Businesses (%s)", number(details.Total))))
	fmt.Fprintln(w, t.Render())
}

func formatDate(g *model.BusinessGroup) string {
	if g.CreatedAt.IsZero() {
		return ""
	}
	return g.CreatedAt.Format("2006-01-02")
}
