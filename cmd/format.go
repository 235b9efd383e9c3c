package cmd

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/gigglobal/gigs/pkg/browse"
	"github.com/gigglobal/gigs/pkg/category"
	"github.com/gigglobal/gigs/pkg/gigapi"
	"github.com/gigglobal/gigs/pkg/paging"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("86")).
			Background(lipgloss.Color("235")).
			Padding(0, 1).
			Margin(0, 0, 1, 0)

	gigStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1).
			Margin(0, 0, 0, 2)

	gigTitleStyle = lipgloss.NewStyle().Bold(true)

	priceStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("32"))

	metaStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			Italic(true)

	pagerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("214")).
			Margin(1, 0, 0, 0)

	noDataStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			Italic(true).
			Margin(1, 0)

	errorStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("196"))
)

var numbers = message.NewPrinter(language.English)

// formatNumber formats a number with K/M suffixes for readability
func formatNumber(n int) string {
	switch {
	case n < 1000:
		return numbers.Sprintf("%d", n)
	case n < 1000000:
		return fmt.Sprintf("%.1fK", float64(n)/1000)
	default:
		return fmt.Sprintf("%.1fM", float64(n)/1000000)
	}
}

// formatTime formats a time relative to now or as an absolute date
func formatTime(t time.Time) string {
	diff := time.Since(t)
	switch {
	case diff < time.Minute:
		return "just now"
	case diff < time.Hour:
		return fmt.Sprintf("%d minutes ago", int(diff.Minutes()))
	case diff < 24*time.Hour:
		return fmt.Sprintf("%d hours ago", int(diff.Hours()))
	case diff < 7*24*time.Hour:
		return fmt.Sprintf("%d days ago", int(diff.Hours()/24))
	case t.Year() == time.Now().Year():
		return t.Format("Jan 2, 15:04")
	default:
		return t.Format("Jan 2, 2006")
	}
}

func formatDelivery(days string) string {
	switch days {
	case "":
		return ""
	case "1":
		return "1 day delivery"
	default:
		return days + " days delivery"
	}
}

func renderGig(g gigapi.Gig) string {
	var b strings.Builder
	b.WriteString(gigTitleStyle.Render(g.Title))
	b.WriteString("\n")
	b.WriteString(priceStyle.Render(numbers.Sprintf("$%.2f", g.Price)))

	var meta []string
	if g.Username != "" {
		meta = append(meta, "by "+g.Username)
	}
	if g.RatingsCount > 0 {
		meta = append(meta, fmt.Sprintf("%.1f★ (%s)", g.Rating(), formatNumber(g.RatingsCount)))
	}
	if d := formatDelivery(g.ExpectedDelivery); d != "" {
		meta = append(meta, d)
	}
	if g.Categories != "" {
		meta = append(meta, g.Categories)
	}
	if len(meta) > 0 {
		b.WriteString("  ")
		b.WriteString(metaStyle.Render(strings.Join(meta, " | ")))
	}
	return gigStyle.Render(b.String())
}

// pagerLine renders the page controls of a listing.
func pagerLine(st paging.State, canPrev, canNext bool) string {
	pages := st.Pages()
	if len(pages) == 0 {
		return ""
	}
	var parts []string
	if canPrev {
		parts = append(parts, "‹ prev")
	}
	nums := make([]string, len(pages))
	for i, p := range pages {
		if p == st.PageIndex {
			nums[i] = fmt.Sprintf("[%d]", p)
		} else {
			nums[i] = fmt.Sprint(p)
		}
	}
	parts = append(parts, strings.Join(nums, " "))
	if canNext {
		parts = append(parts, "next ›")
	}
	return fmt.Sprintf("Page %d of %d (%s results)   %s",
		st.PageIndex, st.PageCount(), numbers.Sprintf("%d", st.TotalCount), strings.Join(parts, "  "))
}

// renderSnapshot writes a listing to w.
func renderSnapshot(w io.Writer, s browse.Snapshot) {
	header := "Search"
	if !s.Query.Empty() {
		header = fmt.Sprintf("%s: %s", header, category.Title(s.Query.Terms))
	}
	fmt.Fprintln(w, titleStyle.Render(header))
	if f := s.Query.Filters.Values().Encode(); f != "" {
		fmt.Fprintln(w, metaStyle.Render("filters: "+f))
	}

	switch {
	case s.Status == paging.Error:
		fmt.Fprintln(w, errorStyle.Render("Error: "+s.Message))
		return
	case s.Placeholder:
		fmt.Fprintln(w, noDataStyle.Render("Loading results for the new filters..."))
		return
	case s.Message != "":
		fmt.Fprintln(w, noDataStyle.Render(strings.ToUpper(s.Message[:1])+s.Message[1:]))
		return
	}

	for _, g := range s.Items {
		fmt.Fprintln(w, renderGig(g))
	}
	if line := pagerLine(s.State, s.CanPrev, s.CanNext); line != "" {
		fmt.Fprintln(w, pagerStyle.Render(line))
	}
}
