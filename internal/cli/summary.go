package cli

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/vk/buildgrid/internal/app"
	"github.com/vk/buildgrid/internal/gate"
	"github.com/vk/buildgrid/internal/scheduler"
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true)
	successStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("42"))
	failureStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196"))
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	boxStyle     = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("63")).
			Padding(0, 1)
)

// renderSummary renders the verdict, task counts, the first failure and a
// line per gate result.
func renderSummary(report *scheduler.Report, results []*gate.Result) string {
	var b strings.Builder

	switch {
	case report.Verdict == scheduler.VerdictFailed:
		b.WriteString(failureStyle.Render("BUILD FAILED"))
	case report.Cancelled:
		b.WriteString(warnStyle.Render("BUILD CANCELLED"))
	default:
		b.WriteString(successStyle.Render("BUILD SUCCESSFUL"))
	}
	b.WriteString("\n")

	upToDate := 0
	for _, t := range report.Tasks {
		if t.Status == scheduler.StatusSkipped && t.Reason == scheduler.ReasonUpToDate {
			upToDate++
		}
	}
	fmt.Fprintf(&b, "%d task(s): %d executed, %d up-to-date, %d skipped, %d failed\n",
		len(report.Tasks),
		report.Count(scheduler.StatusSucceeded),
		upToDate,
		report.Count(scheduler.StatusSkipped)-upToDate,
		report.Count(scheduler.StatusFailed),
	)
	if report.FailedTask != "" {
		fmt.Fprintf(&b, "%s %s\n", failureStyle.Render(report.FailedTask), report.Err)
	}

	if len(results) > 0 {
		b.WriteString("\n")
		b.WriteString(titleStyle.Render("Quality gates"))
		b.WriteString("\n")
		for _, r := range results {
			b.WriteString(gateLine(r))
			b.WriteString("\n")
		}
	}
	return boxStyle.Render(strings.TrimRight(b.String(), "\n")) + "\n"
}

func gateLine(r *gate.Result) string {
	status := successStyle.Render("PASS")
	switch {
	case !r.Passed:
		status = failureStyle.Render("FAIL")
	case r.ViolationCount > r.MaxWarnings:
		status = warnStyle.Render("WARN")
	}
	line := fmt.Sprintf("%s %s %s (%s): %d/%d", status, r.Tool, r.Module, r.SourceSet, r.ViolationCount, r.MaxWarnings)
	if r.UpToDate {
		line += mutedStyle.Render(" (up-to-date)")
	}
	if r.Suppressed > 0 {
		line += mutedStyle.Render(fmt.Sprintf(" +%d suppressed", r.Suppressed))
	}
	if r.ReportPath != "" {
		line += mutedStyle.Render(" " + r.ReportPath)
	}
	return line
}

// renderTasks lists tasks under one heading per group.
func renderTasks(tasks []app.TaskInfo) string {
	byGroup := make(map[string][]app.TaskInfo)
	for _, t := range tasks {
		group := t.Group
		if group == "" {
			group = "other"
		}
		byGroup[group] = append(byGroup[group], t)
	}
	groups := make([]string, 0, len(byGroup))
	for g := range byGroup {
		groups = append(groups, g)
	}
	sort.Strings(groups)

	var b strings.Builder
	for i, g := range groups {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(titleStyle.Render(strings.ToUpper(g[:1]) + g[1:] + " tasks"))
		b.WriteString("\n")
		for _, t := range byGroup[g] {
			b.WriteString(t.ID)
			if t.Description != "" {
				b.WriteString(mutedStyle.Render(" - " + t.Description))
			}
			b.WriteString("\n")
		}
	}
	return b.String()
}
