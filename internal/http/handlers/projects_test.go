package handlers_test

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/geocoder89/tenderhub/internal/cache"
	"github.com/geocoder89/tenderhub/internal/domain/project"
	"github.com/geocoder89/tenderhub/internal/domain/user"
	"github.com/geocoder89/tenderhub/internal/http/handlers"
	"github.com/geocoder89/tenderhub/internal/ws"
	"github.com/gin-gonic/gin"
)

const (
	adminID      = "aaaaaaaa-aaaa-aaaa-aaaa-aaaaaaaaaaaa"
	openProject  = "0b8f3c52-6f5e-4bde-9d55-5d2b0c1a9e01"
	closedProjID = "0b8f3c52-6f5e-4bde-9d55-5d2b0c1a9e02"
)

func sampleProjects() []project.Project {
	now := time.Now().UTC()
	return []project.Project{
		{ID: openProject, Title: "Roof repair", ProjectType: project.TypeRepair, Status: project.StatusOpen, Deadline: now.Add(72 * time.Hour), CreatedAt: now},
		{ID: closedProjID, Title: "Annex construction", ProjectType: project.TypeConstruction, Status: project.StatusClosed, Deadline: now.Add(-time.Hour), CreatedAt: now.Add(-time.Hour)},
	}
}

func setupProjectsRouter(repo *fakeProjects, feed ws.Publisher) *gin.Engine {
	h := handlers.NewProjectsHandler(repo, &fakeFiles{}, cache.New(time.Minute), feed, discardLogger())

	r := gin.New()
	r.GET("/api/projects", h.List)
	r.GET("/api/projects/:id", h.Get)

	admin := r.Group("/api", asUser(adminID, user.RoleAdmin))
	admin.POST("/projects", h.Create)
	admin.PUT("/projects/:id", h.Update)
	admin.DELETE("/projects/:id", h.Delete)
	return r
}

func TestProjectsList_FiltersAndHeaders(t *testing.T) {
	gin.SetMode(gin.TestMode)

	repo := newFakeProjects(sampleProjects()...)
	r := setupProjectsRouter(repo, ws.NopPublisher{})

	w := doJSON(r, http.MethodGet, "/api/projects?status=open", "")
	if w.Code != http.StatusOK {
		t.Fatalf("got %d body=%s", w.Code, w.Body.String())
	}

	var items []project.Project
	if err := json.Unmarshal(w.Body.Bytes(), &items); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(items) != 1 || items[0].ID != openProject {
		t.Fatalf("unexpected items: %+v", items)
	}
	if got := w.Header().Get("X-Total-Count"); got != "1" {
		t.Fatalf("X-Total-Count=%q, want 1", got)
	}
	if w.Header().Get("ETag") == "" {
		t.Fatalf("expected ETag header")
	}
	if got := w.Header().Get("X-Cache"); got != "MISS" {
		t.Fatalf("X-Cache=%q, want MISS", got)
	}

	// second identical request is served from cache
	w = doJSON(r, http.MethodGet, "/api/projects?status=open", "")
	if got := w.Header().Get("X-Cache"); got != "HIT" {
		t.Fatalf("X-Cache=%q, want HIT", got)
	}
	if n := repo.listHits.Load(); n != 1 {
		t.Fatalf("repo listed %d times, want 1", n)
	}
}

func TestProjectsList_InvalidFilter(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := setupProjectsRouter(newFakeProjects(), ws.NopPublisher{})

	for _, q := range []string{"status=pending", "project_type=painting", "limit=0", "limit=101", "cursor=bm90LWpzb24"} {
		w := doJSON(r, http.MethodGet, "/api/projects?"+q, "")
		if w.Code != http.StatusBadRequest {
			t.Fatalf("%s: got %d, want 400", q, w.Code)
		}
	}
}

func TestProjectsGet_NotFoundAndInvalidID(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := setupProjectsRouter(newFakeProjects(), ws.NopPublisher{})

	env := decodeError(t, doJSON(r, http.MethodGet, "/api/projects/"+openProject, ""), http.StatusNotFound)
	if env.Error.Code != "project_not_found" {
		t.Fatalf("code %q", env.Error.Code)
	}

	env = decodeError(t, doJSON(r, http.MethodGet, "/api/projects/not-a-uuid", ""), http.StatusBadRequest)
	if env.Error.Code != "invalid_id" {
		t.Fatalf("code %q", env.Error.Code)
	}
}

func TestProjectsCreate_ReturnsBothIDsAndPublishes(t *testing.T) {
	gin.SetMode(gin.TestMode)

	repo := newFakeProjects()
	feed := &recordingFeed{}
	r := setupProjectsRouter(repo, feed)

	deadline := time.Now().UTC().Add(48 * time.Hour).Format("2006-01-02")
	w := doJSON(r, http.MethodPost, "/api/projects",
		`{"title":"  School painting ","description":"two classrooms","project_type":"maintenance","budget":1500,"deadline":"`+deadline+`"}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("got %d body=%s", w.Code, w.Body.String())
	}

	var resp struct {
		ID        string          `json:"id"`
		ProjectID string          `json:"project_id"`
		Project   project.Project `json:"project"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}

	if resp.ID == "" || resp.ID != resp.ProjectID {
		t.Fatalf("id=%q project_id=%q", resp.ID, resp.ProjectID)
	}
	if resp.Project.Status != project.StatusOpen || resp.Project.Title != "School painting" {
		t.Fatalf("unexpected project: %+v", resp.Project)
	}
	if resp.Project.CreatedBy == nil || *resp.Project.CreatedBy != adminID {
		t.Fatalf("created_by not set from the caller")
	}

	if types := feed.Types(); len(types) != 1 || types[0] != ws.EventProjectCreated {
		t.Fatalf("feed events %v", types)
	}
}

func TestProjectsUpdate_EmptyBody(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := setupProjectsRouter(newFakeProjects(sampleProjects()...), ws.NopPublisher{})

	env := decodeError(t, doJSON(r, http.MethodPut, "/api/projects/"+openProject, `{}`), http.StatusBadRequest)
	if env.Error.Code != "no_fields" {
		t.Fatalf("code %q, want no_fields", env.Error.Code)
	}
}

func TestProjectsUpdate_ChangesStatus(t *testing.T) {
	gin.SetMode(gin.TestMode)

	repo := newFakeProjects(sampleProjects()...)
	r := setupProjectsRouter(repo, ws.NopPublisher{})

	w := doJSON(r, http.MethodPut, "/api/projects/"+openProject, `{"status":"awarded"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("got %d body=%s", w.Code, w.Body.String())
	}
	if got := repo.items[openProject].Status; got != project.StatusAwarded {
		t.Fatalf("status %q, want awarded", got)
	}
}

func TestProjectsDelete(t *testing.T) {
	gin.SetMode(gin.TestMode)

	repo := newFakeProjects(sampleProjects()...)
	feed := &recordingFeed{}
	r := setupProjectsRouter(repo, feed)

	if w := doJSON(r, http.MethodDelete, "/api/projects/"+closedProjID, ""); w.Code != http.StatusOK {
		t.Fatalf("got %d body=%s", w.Code, w.Body.String())
	}
	if _, ok := repo.items[closedProjID]; ok {
		t.Fatalf("project still present")
	}
	decodeError(t, doJSON(r, http.MethodDelete, "/api/projects/"+closedProjID, ""), http.StatusNotFound)

	if types := feed.Types(); len(types) != 1 || types[0] != ws.EventProjectDeleted {
		t.Fatalf("feed events %v", types)
	}
}
