package web

import (
	"database/sql"
	"html/template"
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/hpungsan/sheetload/internal/ops"
)

// Handlers contains HTTP route handlers for the viewer.
type Handlers struct {
	db       *sql.DB
	log      logrus.FieldLogger
	renderer *Renderer
}

// HandleProjects handles GET /projects.
func (h *Handlers) HandleProjects(w http.ResponseWriter, r *http.Request) {
	result, err := ops.ListProjects(r.Context(), h.db)
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	h.renderer.respond(w, r, "projects", ProjectsPageData{
		PageData: h.page("Projects", "projects"),
		Items:    result.Items,
	}, result)
}

// HandleProject handles GET /projects/{id}: tasks and segments of one project.
func (h *Handlers) HandleProject(w http.ResponseWriter, r *http.Request) {
	project, err := ops.GetProject(r.Context(), h.db, ops.GetProjectInput{ID: r.PathValue("id")})
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	h.renderer.respond(w, r, "project", ProjectPageData{
		PageData: h.page(project.Name, "projects"),
		Project:  project,
	}, project)
}

// HandleRuns handles GET /runs.
func (h *Handlers) HandleRuns(w http.ResponseWriter, r *http.Request) {
	result, err := ops.ListRuns(r.Context(), h.db)
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	h.renderer.respond(w, r, "runs", RunsPageData{
		PageData: h.page("Import runs", "runs"),
		Items:    result.Items,
	}, result)
}

// HandleReport handles GET /report. The report body is goldmark output of
// escaped Markdown, so it is safe to embed.
func (h *Handlers) HandleReport(w http.ResponseWriter, r *http.Request) {
	result, err := ops.Report(r.Context(), h.db, ops.ReportInput{Format: ops.ReportHTML})
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	h.renderer.respond(w, r, "report", ReportPageData{
		PageData: h.page("Report", "report"),
		Body:     template.HTML(result.Content),
	}, result)
}

func (h *Handlers) page(title, nav string) PageData {
	return PageData{Title: title, Version: h.renderer.version, Nav: nav}
}
