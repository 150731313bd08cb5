package screen

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/n1rna/cms-admin/internal/api"
	"github.com/n1rna/cms-admin/internal/resource"
)

// stubRemote answers from memory. When gate is set, Create and Update wait
// on it before answering.
type stubRemote struct {
	mu      sync.Mutex
	records []api.Record
	nextID  int
	failErr error
	gate    chan struct{}
	entered chan struct{}
}

func (s *stubRemote) wait() {
	if s.gate == nil {
		return
	}
	if s.entered != nil {
		s.entered <- struct{}{}
	}
	<-s.gate
}

func (s *stubRemote) List(ctx context.Context) ([]api.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]api.Record(nil), s.records...), nil
}

func (s *stubRemote) Create(ctx context.Context, fields api.Fields) (api.Record, error) {
	s.wait()
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failErr != nil {
		return nil, s.failErr
	}
	s.nextID++
	rec := api.Record{"id": json.Number(fmt.Sprint(s.nextID)), "createdAt": "2024-01-01T00:00:00Z"}
	for k, v := range fields {
		rec[k] = v
	}
	return rec, nil
}

func (s *stubRemote) Update(ctx context.Context, id api.RecordID, fields api.Fields) (api.Record, error) {
	s.wait()
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failErr != nil {
		return nil, s.failErr
	}
	return nil, nil
}

func (s *stubRemote) Delete(ctx context.Context, id api.RecordID) error {
	return nil
}

func jobs(t *testing.T) *resource.Definition {
	t.Helper()
	def, err := resource.Builtin().Get("jobs")
	if err != nil {
		t.Fatal(err)
	}
	return def
}

func books(t *testing.T) *resource.Definition {
	t.Helper()
	def, err := resource.Builtin().Get("books")
	if err != nil {
		t.Fatal(err)
	}
	return def
}

func TestOpenCreateUsesDefaults(t *testing.T) {
	def := jobs(t)
	c := New(def, &stubRemote{})

	if c.Draft() != nil {
		t.Fatal("form should start closed")
	}
	c.OpenCreate()

	d := c.Draft()
	if d == nil || d.Mode != ModeCreate || d.EditingID != "" {
		t.Fatalf("Draft() = %+v", d)
	}
	if len(d.Fields) != len(def.Fields) {
		t.Errorf("draft has %d fields, want %d", len(d.Fields), len(def.Fields))
	}
}

func TestOpenEditProjectsRecord(t *testing.T) {
	c := New(jobs(t), &stubRemote{})
	rec := api.Record{"id": json.Number("5"), "title": "Clerk", "slug": "clerk", "createdAt": "2024-01-01"}

	if err := c.OpenEdit(rec); err != nil {
		t.Fatal(err)
	}
	d := c.Draft()
	if d.Mode != ModeEdit || d.EditingID != "5" {
		t.Errorf("Draft() = %+v", d)
	}
	if d.Fields["title"] != "Clerk" || d.Fields["slug"] != "clerk" {
		t.Errorf("fields = %v", d.Fields)
	}
	if _, ok := d.Fields["createdAt"]; ok {
		t.Error("metadata must not be editable")
	}

	if err := c.OpenEdit(api.Record{"title": "no id"}); err == nil {
		t.Error("OpenEdit of a record without id should fail")
	}
}

func TestChangeField(t *testing.T) {
	c := New(books(t), &stubRemote{})

	if err := c.ChangeField("nameOfBook", "x"); !errors.Is(err, ErrNoDraft) {
		t.Errorf("ChangeField without form: %v", err)
	}

	c.OpenCreate()
	tests := []struct {
		name    string
		field   string
		value   string
		want    string
		wantErr error
	}{
		{"text", "nameOfBook", "Algebra", "Algebra", nil},
		{"file keeps base name", "pdf", "/home/me/papers/algebra.pdf", "algebra.pdf", nil},
		{"file cleared", "pdf", "", "", nil},
		{"unknown", "price", "10", "", ErrUnknownField},
		{"metadata", "createdAt", "2024", "", ErrUnknownField},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := c.ChangeField(tt.field, tt.value)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("ChangeField() error = %v, want %v", err, tt.wantErr)
			}
			if tt.wantErr == nil && c.Draft().Fields[tt.field] != tt.want {
				t.Errorf("%s = %q, want %q", tt.field, c.Draft().Fields[tt.field], tt.want)
			}
		})
	}
}

func TestDraftIsACopy(t *testing.T) {
	c := New(jobs(t), &stubRemote{})
	c.OpenCreate()
	c.Draft().Fields["title"] = "mutated"
	if c.Draft().Fields["title"] == "mutated" {
		t.Error("Draft() must not expose internal state")
	}
}

func TestSubmitCreate(t *testing.T) {
	c := New(jobs(t), &stubRemote{})
	ctx := context.Background()
	if err := c.Load(ctx); err != nil {
		t.Fatal(err)
	}

	c.OpenCreate()
	if err := c.ChangeField("title", "Clerk Exam"); err != nil {
		t.Fatal(err)
	}
	saved, err := c.Submit(ctx)
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if saved.ID() != "1" {
		t.Errorf("saved id = %q", saved.ID())
	}
	if c.Draft() != nil {
		t.Error("form should close after a successful submit")
	}

	st := c.Store().Snapshot()
	if len(st.Items) != 1 || st.Items[0].String("title") != "Clerk Exam" {
		t.Errorf("items = %v", st.Items)
	}
	if len(st.Filtered) != 1 {
		t.Errorf("filtered = %v", st.Filtered)
	}
}

func TestSubmitEdit(t *testing.T) {
	remote := &stubRemote{records: []api.Record{
		{"id": json.Number("3"), "title": "Old", "slug": "old", "createdAt": "2024-01-01T00:00:00Z"},
	}}
	c := New(jobs(t), remote)
	ctx := context.Background()
	if err := c.Load(ctx); err != nil {
		t.Fatal(err)
	}

	rec, _ := c.Store().Get("3")
	if err := c.OpenEdit(rec); err != nil {
		t.Fatal(err)
	}
	if err := c.ChangeField("title", "New"); err != nil {
		t.Fatal(err)
	}
	if _, err := c.Submit(ctx); err != nil {
		t.Fatalf("Submit() error = %v", err)
	}

	got, _ := c.Store().Get("3")
	if got.String("title") != "New" || got.String("slug") != "old" || got.String("createdAt") != "2024-01-01T00:00:00Z" {
		t.Errorf("record after edit = %v", got)
	}
}

func TestSubmitFailureKeepsDraft(t *testing.T) {
	remote := &stubRemote{failErr: &api.ValidationError{StatusCode: 422, Detail: "slug taken"}}
	c := New(jobs(t), remote)
	c.OpenCreate()
	_ = c.ChangeField("title", "Clerk")

	_, err := c.Submit(context.Background())
	var ve *api.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("Submit() error = %v, want ValidationError", err)
	}

	d := c.Draft()
	if d == nil {
		t.Fatal("form should stay open after a failed submit")
	}
	if d.Fields["title"] != "Clerk" {
		t.Errorf("values lost: %v", d.Fields)
	}
	if d.Pending {
		t.Error("pending must be cleared after failure")
	}
	if d.Err == nil {
		t.Error("failure should be recorded on the draft")
	}

	// retry after the server recovers
	remote.mu.Lock()
	remote.failErr = nil
	remote.mu.Unlock()
	if _, err := c.Submit(context.Background()); err != nil {
		t.Fatalf("retry error = %v", err)
	}
	if c.Draft() != nil {
		t.Error("form should close after the retry succeeds")
	}
}

func TestSubmitWithoutDraft(t *testing.T) {
	c := New(jobs(t), &stubRemote{})
	if _, err := c.Submit(context.Background()); !errors.Is(err, ErrNoDraft) {
		t.Errorf("Submit() error = %v", err)
	}
}

func TestSubmitPendingGuard(t *testing.T) {
	remote := &stubRemote{gate: make(chan struct{}), entered: make(chan struct{}, 1)}
	c := New(jobs(t), remote)
	c.OpenCreate()
	_ = c.ChangeField("title", "once")

	done := make(chan error, 1)
	go func() {
		_, err := c.Submit(context.Background())
		done <- err
	}()
	<-remote.entered

	if d := c.Draft(); d == nil || !d.Pending {
		t.Fatalf("draft should be pending while the request is in flight: %+v", d)
	}
	if _, err := c.Submit(context.Background()); !errors.Is(err, ErrSubmitPending) {
		t.Errorf("second Submit() error = %v, want ErrSubmitPending", err)
	}

	close(remote.gate)
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("first Submit() error = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("submit never finished")
	}

	if n := len(c.Store().Items()); n != 1 {
		t.Errorf("items = %d, want exactly one create", n)
	}
}

func TestCloseDuringSubmit(t *testing.T) {
	remote := &stubRemote{gate: make(chan struct{}), entered: make(chan struct{}, 1)}
	c := New(jobs(t), remote)
	c.OpenCreate()

	done := make(chan error, 1)
	go func() {
		_, err := c.Submit(context.Background())
		done <- err
	}()
	<-remote.entered

	c.Close()
	c.OpenCreate()
	_ = c.ChangeField("title", "second form")
	close(remote.gate)

	if err := <-done; err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	d := c.Draft()
	if d == nil || d.Fields["title"] != "second form" {
		t.Errorf("a late result must not close the form opened afterwards: %+v", d)
	}
}

func TestLateResultAfterDispose(t *testing.T) {
	remote := &stubRemote{gate: make(chan struct{}), entered: make(chan struct{}, 1)}
	c := New(jobs(t), remote)
	c.OpenCreate()

	done := make(chan error, 1)
	go func() {
		_, err := c.Submit(context.Background())
		done <- err
	}()
	<-remote.entered

	c.Dispose()
	close(remote.gate)

	if err := <-done; err != nil {
		t.Errorf("late Submit() should be a no-op, got %v", err)
	}
	if n := len(c.Store().Items()); n != 0 {
		t.Errorf("disposed screen changed its list: %d items", n)
	}
	if c.Draft() != nil {
		t.Error("disposed screen should have no form")
	}
	if err := c.Load(context.Background()); err != nil {
		t.Errorf("Load() after Dispose = %v", err)
	}
}

func TestDefaultSortFromDefinition(t *testing.T) {
	remote := &stubRemote{records: []api.Record{
		{"id": json.Number("1"), "title": "older", "createdAt": "2024-01-01T00:00:00Z"},
		{"id": json.Number("2"), "title": "newer", "createdAt": "2024-05-01T00:00:00Z"},
	}}
	c := New(jobs(t), remote)
	if err := c.Load(context.Background()); err != nil {
		t.Fatal(err)
	}

	if got := c.Store().Filtered()[0].String("title"); got != "newer" {
		t.Errorf("first row = %q, want newest first", got)
	}

	c.Sort("createdAt")
	if got := c.Store().Filtered()[0].String("title"); got != "older" {
		t.Errorf("after toggle first row = %q", got)
	}

	c.Search("OLD")
	if n := len(c.Store().Filtered()); n != 1 {
		t.Errorf("search kept %d rows", n)
	}
}
