package handlers_test

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/geocoder89/tenderhub/internal/domain/bid"
	"github.com/geocoder89/tenderhub/internal/domain/candidate"
	"github.com/geocoder89/tenderhub/internal/domain/dashboard"
	"github.com/geocoder89/tenderhub/internal/domain/document"
	"github.com/geocoder89/tenderhub/internal/domain/job"
	"github.com/geocoder89/tenderhub/internal/domain/project"
	"github.com/geocoder89/tenderhub/internal/domain/user"
	"github.com/geocoder89/tenderhub/internal/http/middlewares"
	"github.com/geocoder89/tenderhub/internal/repo/postgres"
	"github.com/geocoder89/tenderhub/internal/storage"
	"github.com/geocoder89/tenderhub/internal/utils"
	"github.com/geocoder89/tenderhub/internal/ws"
	"github.com/gin-gonic/gin"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// asUser stands in for the auth middleware.
func asUser(id, role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middlewares.CtxUserID, id)
		c.Set(middlewares.CtxRole, role)
		c.Next()
	}
}

type fakeUsers struct {
	byEmail    map[string]user.User
	candidates map[string]candidate.Candidate
	registerFn func(req candidate.RegisterRequest) (user.User, candidate.Candidate, error)
}

func (f *fakeUsers) GetByEmail(_ context.Context, email string) (user.User, error) {
	u, ok := f.byEmail[email]
	if !ok {
		return user.User{}, user.ErrNotFound
	}
	return u, nil
}

func (f *fakeUsers) GetByID(_ context.Context, id string) (user.User, error) {
	for _, u := range f.byEmail {
		if u.ID == id {
			return u, nil
		}
	}
	return user.User{}, user.ErrNotFound
}

func (f *fakeUsers) RegisterCandidate(_ context.Context, req candidate.RegisterRequest, _ string) (user.User, candidate.Candidate, error) {
	if f.registerFn != nil {
		return f.registerFn(req)
	}
	return user.User{ID: "u-new", Email: req.Email, Username: req.Username, Role: user.RoleCandidate, IsActive: true},
		candidate.Candidate{ID: "c-new", UserID: "u-new", CompanyName: req.CompanyName}, nil
}

func (f *fakeUsers) GetCandidateByUserID(_ context.Context, userID string) (candidate.Candidate, error) {
	c, ok := f.candidates[userID]
	if !ok {
		return candidate.Candidate{}, candidate.ErrNotFound
	}
	return c, nil
}

type fakeRefreshStore struct {
	mu      sync.Mutex
	created []postgres.RefreshTokenRow
}

func (f *fakeRefreshStore) Create(_ context.Context, row postgres.RefreshTokenRow) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.created = append(f.created, row)
	return nil
}

func (f *fakeRefreshStore) Rotate(context.Context, string, string, postgres.RefreshTokenRow) error {
	return nil
}
func (f *fakeRefreshStore) Revoke(context.Context, string) error { return nil }
func (f *fakeRefreshStore) RevokeAllForUser(context.Context, string) error { return nil }

type fakeProjects struct {
	items    map[string]project.Project
	listHits atomic.Int32
	created  []project.Project
}

func newFakeProjects(ps ...project.Project) *fakeProjects {
	f := &fakeProjects{items: map[string]project.Project{}}
	for _, p := range ps {
		f.items[p.ID] = p
	}
	return f
}

func (f *fakeProjects) Create(_ context.Context, p project.Project) (project.Project, error) {
	f.items[p.ID] = p
	f.created = append(f.created, p)
	return p, nil
}

func (f *fakeProjects) GetByID(_ context.Context, id string) (project.Project, error) {
	p, ok := f.items[id]
	if !ok {
		return project.Project{}, project.ErrNotFound
	}
	return p, nil
}

func (f *fakeProjects) List(_ context.Context, flt project.ListFilter) ([]project.Project, int, *string, error) {
	f.listHits.Add(1)

	var out []project.Project
	for _, p := range f.items {
		if flt.Status != nil && p.Status != *flt.Status {
			continue
		}
		if flt.Query != nil && !strings.Contains(strings.ToLower(p.Title), strings.ToLower(*flt.Query)) {
			continue
		}
		out = append(out, p)
	}
	return out, len(out), nil, nil
}

func (f *fakeProjects) Update(_ context.Context, p project.Project) (project.Project, error) {
	if _, ok := f.items[p.ID]; !ok {
		return project.Project{}, project.ErrNotFound
	}
	f.items[p.ID] = p
	return p, nil
}

func (f *fakeProjects) Delete(_ context.Context, id string) ([]string, error) {
	if _, ok := f.items[id]; !ok {
		return nil, project.ErrNotFound
	}
	delete(f.items, id)
	return nil, nil
}

type fakeBids struct {
	views     map[string]bid.View
	submitErr error
	submitted []bid.Bid
	notified  []job.CreateRequest
}

func (f *fakeBids) Submit(_ context.Context, b bid.Bid, _ []document.Document, notify *job.CreateRequest) error {
	if f.submitErr != nil {
		return f.submitErr
	}
	f.submitted = append(f.submitted, b)
	if notify != nil {
		f.notified = append(f.notified, *notify)
	}
	if f.views == nil {
		f.views = map[string]bid.View{}
	}
	f.views[b.ID] = bid.View{Bid: b}
	return nil
}

func (f *fakeBids) GetView(_ context.Context, id string) (bid.View, error) {
	v, ok := f.views[id]
	if !ok {
		return bid.View{}, bid.ErrNotFound
	}
	return v, nil
}

func (f *fakeBids) List(_ context.Context, _ bid.ListFilter) ([]bid.View, error) {
	var out []bid.View
	for _, v := range f.views {
		out = append(out, v)
	}
	return out, nil
}

func (f *fakeBids) UpdateStatus(_ context.Context, id string, req bid.UpdateStatusRequest, notify *job.CreateRequest) (bid.View, error) {
	v, ok := f.views[id]
	if !ok {
		return bid.View{}, bid.ErrNotFound
	}
	v.Status = req.Status
	f.views[id] = v
	if notify != nil {
		f.notified = append(f.notified, *notify)
	}
	return v, nil
}

type fakeFiles struct{ deleted []string }

func (f *fakeFiles) Save(_ context.Context, bidID, originalName string, r io.Reader) (storage.Stored, error) {
	n, _ := io.Copy(io.Discard, r)
	return storage.Stored{FileName: originalName, RelPath: bidID + "/" + originalName, ContentType: "application/pdf", Size: n}, nil
}

func (f *fakeFiles) Path(relPath string) (string, error) { return "/tmp/" + relPath, nil }

func (f *fakeFiles) Delete(_ context.Context, relPath string) error {
	f.deleted = append(f.deleted, relPath)
	return nil
}

type fakeStats struct {
	calls atomic.Int32
	delay time.Duration
}

func (f *fakeStats) Stats(context.Context) (dashboard.Stats, error) {
	f.calls.Add(1)
	time.Sleep(f.delay)
	return dashboard.Stats{TotalProjects: 3, OpenProjects: 2, TotalBids: 5}, nil
}

type fakeJobs struct {
	items    map[string]job.Job
	retryErr error
}

func (f *fakeJobs) ListCursor(_ context.Context, status *string, limit int, _ *utils.Cursor) ([]job.Job, *string, error) {
	var out []job.Job
	for _, j := range f.items {
		if status != nil && string(j.Status) != *status {
			continue
		}
		out = append(out, j)
		if len(out) == limit {
			break
		}
	}
	return out, nil, nil
}

func (f *fakeJobs) GetByID(_ context.Context, id string) (job.Job, error) {
	j, ok := f.items[id]
	if !ok {
		return job.Job{}, job.ErrJobNotFound
	}
	return j, nil
}

func (f *fakeJobs) Retry(_ context.Context, id string) error {
	if f.retryErr != nil {
		return f.retryErr
	}
	if _, ok := f.items[id]; !ok {
		return job.ErrJobNotFound
	}
	return nil
}

func (f *fakeJobs) RetryManyFailed(context.Context, int) (int64, error) { return 2, nil }

// recordingFeed collects published event types.
type recordingFeed struct {
	mu    sync.Mutex
	types []string
}

func (r *recordingFeed) Publish(_ context.Context, ev ws.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.types = append(r.types, ev.Type)
}

func (r *recordingFeed) Types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.types...)
}
