package ops

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/hpungsan/sheetload/internal/db"
	"github.com/hpungsan/sheetload/internal/errors"
	"github.com/hpungsan/sheetload/internal/timeparse"
	"github.com/hpungsan/sheetload/internal/timesheet"
)

// Report formats.
const (
	ReportMarkdown = "markdown"
	ReportHTML     = "html"
)

// ReportInput contains parameters for the Report operation.
type ReportInput struct {
	Format string // markdown (default) or html
}

// ReportOutput is a rendered summary of everything stored.
type ReportOutput struct {
	Format     string  `json:"format"`
	Content    string  `json:"content"`
	Projects   int     `json:"projects"`
	DurationMS int64   `json:"duration_ms"`
	TotalPay   float64 `json:"total_pay"`
}

var markdown = goldmark.New(goldmark.WithExtensions(extension.GFM))

// Report summarizes stored projects and tasks as a Markdown document,
// optionally rendered to HTML.
func Report(ctx context.Context, database *sql.DB, input ReportInput) (*ReportOutput, error) {
	format := strings.ToLower(strings.TrimSpace(input.Format))
	if format == "" {
		format = ReportMarkdown
	}
	if format != ReportMarkdown && format != ReportHTML {
		return nil, errors.NewInvalidRequest("format must be one of: markdown, html")
	}

	projects, err := db.Projects.RetrieveAll(ctx, database)
	if err != nil {
		return nil, err
	}
	tasks, err := db.Tasks.RetrieveAll(ctx, database)
	if err != nil {
		return nil, err
	}
	byProject := make(map[uuid.UUID][]*timesheet.Task)
	for _, t := range tasks {
		byProject[t.ProjectID] = append(byProject[t.ProjectID], t)
	}

	out := &ReportOutput{Format: format, Projects: len(projects)}
	for _, p := range projects {
		out.DurationMS += p.DurationMS
		out.TotalPay += p.TotalPay
	}

	content := renderReport(projects, byProject, out)
	if format == ReportHTML {
		var buf bytes.Buffer
		if err := markdown.Convert([]byte(content), &buf); err != nil {
			return nil, errors.NewInternal(fmt.Errorf("render report: %w", err))
		}
		content = buf.String()
	}
	out.Content = content
	return out, nil
}

func renderReport(projects []*timesheet.Project, tasks map[uuid.UUID][]*timesheet.Task, totals *ReportOutput) string {
	var b strings.Builder

	b.WriteString("# Timesheet report\n\n")
	if len(projects) == 0 {
		b.WriteString("No projects stored.\n")
		return b.String()
	}

	b.WriteString("| Date | Project | Rate | Time | Pay |\n")
	b.WriteString("| --- | --- | ---: | ---: | ---: |\n")
	for _, p := range projects {
		fmt.Fprintf(&b, "| %s | %s | %.2f | %s | %.2f |\n",
			p.Date.Format(timeparse.StoreDateLayout), escapeCell(p.Name), p.PayRate,
			timeparse.FormatMillis(p.DurationMS), p.TotalPay)
	}

	noun := "projects"
	if totals.Projects == 1 {
		noun = "project"
	}
	fmt.Fprintf(&b, "\n**Total:** %d %s, %s, %.2f\n",
		totals.Projects, noun, timeparse.FormatMillis(totals.DurationMS), totals.TotalPay)

	for _, p := range projects {
		fmt.Fprintf(&b, "\n## %s (%s)\n\n", p.Name, p.Date.Format(timeparse.StoreDateLayout))
		ts := tasks[p.ID]
		if len(ts) == 0 {
			b.WriteString("No tasks.\n")
			continue
		}
		for _, t := range ts {
			fmt.Fprintf(&b, "- %s at %s: %s\n", t.Name, t.StartedAt.Format("15:04"), timeparse.FormatMillis(t.DurationMS))
		}
	}
	return b.String()
}

func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}
