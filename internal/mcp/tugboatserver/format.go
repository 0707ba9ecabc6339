package tugboatserver

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/tugboatqa/tugboat-mcp/internal/tugboat"
)

// formatBytes renders a byte count as B/KB/MB/GB/TB with two decimal
// places, using 1024 as the unit step.
func formatBytes(n int64) string {
	const unit = 1024
	sizes := []string{"B", "KB", "MB", "GB", "TB"}
	value := float64(n)
	i := 0
	for value >= unit && i < len(sizes)-1 {
		value /= unit
		i++
	}
	return fmt.Sprintf("%.2f %s", value, sizes[i])
}

// statValue renders one sample of a statistics series. Size series are
// byte counts and time series carry a seconds suffix; anything else is
// printed as a bare number.
func statValue(item string, v float64) string {
	switch {
	case strings.Contains(item, "size"):
		return formatBytes(int64(v))
	case strings.Contains(item, "time"):
		return strconv.FormatFloat(v, 'f', -1, 64) + " seconds"
	default:
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
}

// statsReport renders a statistics series with one line per sample.
func statsReport(item string, points []tugboat.StatPoint) string {
	if len(points) == 0 {
		return "No statistics available."
	}
	lines := []string{fmt.Sprintf("Statistics for %q (%d samples):", item, len(points))}
	for _, p := range points {
		if p.Date != nil {
			lines = append(lines, fmt.Sprintf("- %s: %s", *p.Date, statValue(item, p.Value)))
		} else {
			lines = append(lines, "- "+statValue(item, p.Value))
		}
	}
	return strings.Join(lines, "\n")
}

// listReport renders a heading plus the given entry lines, or a "none
// found" message when there are no entries. label is plural and
// capitalized, as in "Previews".
func listReport(label string, entries []string) string {
	if len(entries) == 0 {
		return "No " + strings.ToLower(label) + " found."
	}
	lines := append([]string{fmt.Sprintf("%s (%d):", label, len(entries))}, entries...)
	return strings.Join(lines, "\n")
}

// logsReport joins preview log lines, or explains that there are none.
func logsReport(logs []tugboat.LogLine) string {
	if len(logs) == 0 {
		return "No logs available for this preview"
	}
	lines := make([]string, len(logs))
	for i, l := range logs {
		lines[i] = l.String()
	}
	return strings.Join(lines, "\n")
}

func strVal(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// previewSummary renders a multi-line description of a preview, leaving
// out any field the API did not report.
func previewSummary(p *tugboat.Preview) string {
	lines := []string{
		"Preview: " + p.Name,
		"ID: " + p.ID,
	}
	if p.State != nil {
		lines = append(lines, "State: "+*p.State)
	}
	if p.Ref != nil {
		lines = append(lines, "Ref: "+*p.Ref)
	}
	if p.URL != nil {
		lines = append(lines, "URL: "+*p.URL)
	}
	if p.Repository != "" {
		lines = append(lines, "Repository: "+p.Repository)
	}
	if p.Size != nil {
		lines = append(lines, "Size: "+formatBytes(*p.Size))
	}
	if p.Locked != nil {
		lines = append(lines, "Locked: "+strconv.FormatBool(*p.Locked))
	}
	if p.Anchor != nil {
		lines = append(lines, "Anchor: "+strconv.FormatBool(*p.Anchor))
	}
	if p.BuildBeginAt != nil {
		lines = append(lines, "Build began: "+*p.BuildBeginAt)
	}
	if p.BuildEndAt != nil {
		lines = append(lines, "Build ended: "+*p.BuildEndAt)
	}
	return strings.Join(lines, "\n")
}

// projectSummary renders a multi-line description of a project.
func projectSummary(p *tugboat.Project) string {
	lines := []string{
		"Project: " + p.Name,
		"ID: " + p.ID,
	}
	if p.Description != nil {
		lines = append(lines, "Description: "+*p.Description)
	}
	if p.Domain != nil {
		lines = append(lines, "Domain: "+*p.Domain)
	}
	if p.Quota != nil {
		lines = append(lines, "Quota: "+formatBytes(*p.Quota))
	}
	if p.Size != nil {
		lines = append(lines, "Size: "+formatBytes(*p.Size))
	}
	if len(p.Repos) > 0 {
		lines = append(lines, "Repositories: "+strconv.Itoa(len(p.Repos)))
	}
	if len(p.Users) > 0 {
		lines = append(lines, "Users: "+strconv.Itoa(len(p.Users)))
	}
	if len(p.Admins) > 0 {
		lines = append(lines, "Admins: "+strconv.Itoa(len(p.Admins)))
	}
	if p.CreatedAt != nil {
		lines = append(lines, "Created: "+*p.CreatedAt)
	}
	if p.UpdatedAt != nil {
		lines = append(lines, "Updated: "+*p.UpdatedAt)
	}
	return strings.Join(lines, "\n")
}

// repositorySummary renders a multi-line description of a repository.
func repositorySummary(r *tugboat.Repository) string {
	lines := []string{
		"Repository: " + r.Name,
		"ID: " + r.ID,
	}
	if r.Project != "" {
		lines = append(lines, "Project: "+r.Project)
	}
	if r.Provider != nil {
		lines = append(lines, "Provider: "+*r.Provider)
	}
	if r.URL != nil {
		lines = append(lines, "URL: "+*r.URL)
	}
	if r.Private != nil {
		lines = append(lines, "Private: "+strconv.FormatBool(*r.Private))
	}
	if r.Autobuild != nil {
		lines = append(lines, "Autobuild: "+strconv.FormatBool(*r.Autobuild))
	}
	if r.Autorebuild != nil {
		lines = append(lines, "Autorebuild: "+strconv.FormatBool(*r.Autorebuild))
	}
	if r.Autoredeploy != nil {
		lines = append(lines, "Autoredeploy: "+strconv.FormatBool(*r.Autoredeploy))
	}
	if r.BuildTimeout != nil {
		lines = append(lines, fmt.Sprintf("Build timeout: %d seconds", *r.BuildTimeout))
	}
	if r.RefreshTimeout != nil {
		lines = append(lines, fmt.Sprintf("Refresh timeout: %d seconds", *r.RefreshTimeout))
	}
	if r.Size != nil {
		lines = append(lines, "Size: "+formatBytes(*r.Size))
	}
	if r.PreviewCount != nil {
		lines = append(lines, "Previews: "+strconv.Itoa(*r.PreviewCount))
	}
	return strings.Join(lines, "\n")
}

// jobLines renders whichever fields the API reported on a queued job.
func jobLines(job *tugboat.Job) []string {
	var lines []string
	if job == nil {
		return lines
	}
	if job.ID != "" {
		lines = append(lines, "Job ID: "+job.ID)
	}
	if job.Action != nil {
		lines = append(lines, "Action: "+*job.Action)
	}
	if job.Result != nil {
		lines = append(lines, "Result: "+*job.Result)
	}
	if job.Message != nil {
		lines = append(lines, "Message: "+*job.Message)
	}
	return lines
}

func previewEntries(previews []tugboat.Preview) []string {
	entries := make([]string, len(previews))
	for i := range previews {
		p := &previews[i]
		entry := fmt.Sprintf("- %s (%s)", p.Name, p.ID)
		if p.State != nil {
			entry += " [" + *p.State + "]"
		}
		if p.URL != nil {
			entry += " " + *p.URL
		}
		entries[i] = entry
	}
	return entries
}

func projectEntries(projects []tugboat.Project) []string {
	entries := make([]string, len(projects))
	for i := range projects {
		p := &projects[i]
		entry := fmt.Sprintf("- %s (%s)", p.Name, p.ID)
		if p.Domain != nil {
			entry += " " + *p.Domain
		}
		entries[i] = entry
	}
	return entries
}

func repositoryEntries(repos []tugboat.Repository) []string {
	entries := make([]string, len(repos))
	for i := range repos {
		r := &repos[i]
		entry := fmt.Sprintf("- %s (%s)", r.Name, r.ID)
		if r.Provider != nil {
			entry += " [" + *r.Provider + "]"
		}
		entries[i] = entry
	}
	return entries
}

func jobEntries(jobs []tugboat.Job) []string {
	entries := make([]string, len(jobs))
	for i := range jobs {
		j := &jobs[i]
		var parts []string
		if j.ID != "" {
			parts = append(parts, j.ID)
		}
		if j.Action != nil {
			parts = append(parts, *j.Action)
		}
		if j.Target != nil {
			parts = append(parts, "on "+*j.Target)
		}
		if j.Result != nil {
			parts = append(parts, "("+*j.Result+")")
		}
		entries[i] = "- " + strings.Join(parts, " ")
	}
	return entries
}

func refEntries(refs []tugboat.Ref) []string {
	entries := make([]string, len(refs))
	for i, r := range refs {
		entry := "- " + r.Name
		if r.SHA != nil {
			entry += " (" + *r.SHA + ")"
		}
		entries[i] = entry
	}
	return entries
}

func pullRequestEntries(pulls []tugboat.PullRequest) []string {
	entries := make([]string, len(pulls))
	for i, p := range pulls {
		entry := fmt.Sprintf("- #%d", p.Number)
		if p.Title != nil {
			entry += " " + *p.Title
		}
		if p.State != nil {
			entry += " [" + *p.State + "]"
		}
		if p.URL != nil {
			entry += " " + *p.URL
		}
		entries[i] = entry
	}
	return entries
}
