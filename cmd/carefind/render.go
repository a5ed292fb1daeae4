package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/poiesic/carefind/facet"
	"github.com/poiesic/carefind/ingestion"
	"github.com/poiesic/carefind/result"
	"github.com/poiesic/carefind/search"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("86")).
			Background(lipgloss.Color("235")).
			Padding(0, 1).
			Margin(0, 0, 1, 0)

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("214"))

	resultStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1).
			Margin(0, 0, 1, 2)

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("33"))

	metaStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			Italic(true)

	summaryStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("32")).
			Border(lipgloss.ThickBorder()).
			BorderForeground(lipgloss.Color("32")).
			Padding(0, 1)

	noDataStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			Italic(true)
)

func field(label, value string) string {
	if value == "" {
		return ""
	}
	return labelStyle.Render(label+":") + " " + value
}

func joinNonEmpty(lines ...string) string {
	kept := lines[:0]
	for _, l := range lines {
		if l != "" {
			kept = append(kept, l)
		}
	}
	return strings.Join(kept, "\n")
}

func renderResult(r *result.Result) string {
	location := joinNonEmpty(r.LocationName, strings.TrimSpace(r.City+" "+r.State+" "+r.ZipCode))
	location = strings.ReplaceAll(location, "\n", ", ")

	var codes []string
	for _, cat := range r.Categories {
		codes = append(codes, cat.Label)
	}

	return resultStyle.Render(joinNonEmpty(
		headerStyle.Render(r.Title),
		metaStyle.Render(string(r.ID)+"  "+r.OrganizationName),
		r.Description,
		field("Location", location),
		field("Phone", r.Phone),
		field("Languages", r.Languages),
		field("Fees", r.Fees),
		field("Age", r.AgeRestriction),
		field("Service area", r.ServiceArea),
		field("Categories", strings.Join(codes, ", ")),
		field("Schedule", r.Schedule),
	))
}

func renderResponse(w io.Writer, resp *search.Response, limit int) {
	fmt.Fprintln(w, titleStyle.Render(fmt.Sprintf("%d of %d results", len(resp.Results), resp.Total)))
	if len(resp.Results) == 0 {
		fmt.Fprintln(w, noDataStyle.Render("No services found."))
		return
	}
	for i, r := range resp.Results {
		if limit > 0 && i >= limit {
			fmt.Fprintln(w, metaStyle.Render(fmt.Sprintf("... %d more", len(resp.Results)-limit)))
			break
		}
		fmt.Fprintln(w, renderResult(r))
	}
}

func renderSummary(w io.Writer, summary *facet.Summary) {
	if summary == nil {
		fmt.Fprintln(w, noDataStyle.Render("No facets available."))
		return
	}
	if summary.OpenNow {
		fmt.Fprintln(w, headerStyle.Render("Open now"))
	}
	for _, g := range summary.Groups {
		fmt.Fprintln(w, headerStyle.Render(g.Label))
		for _, it := range g.Items {
			fmt.Fprintf(w, "  %s %s\n", it.Label, metaStyle.Render(fmt.Sprintf("(%d)", it.Count)))
		}
	}
}

func renderSuggestions(w io.Writer, s *search.Suggestions) {
	if len(s.Groups) == 0 {
		fmt.Fprintln(w, noDataStyle.Render("No suggestions."))
		return
	}
	for _, g := range s.Groups {
		fmt.Fprintln(w, headerStyle.Render(g.Label))
		for _, it := range g.Items {
			line := "  " + it.Text
			if it.Code != "" {
				line += " " + metaStyle.Render(it.Code)
			}
			fmt.Fprintln(w, line)
		}
	}
}

func renderStats(w io.Writer, stats *ingestion.Stats) {
	fmt.Fprintln(w, summaryStyle.Render(fmt.Sprintf(
		"Ingested %d taxonomies, %d agencies, %d sites, %d programs, %d program services, %d offerings, %d translations",
		stats.Taxonomies, stats.Agencies, stats.Sites, stats.Programs,
		stats.ProgramServices, stats.SitePrograms, stats.Translations)))
}
