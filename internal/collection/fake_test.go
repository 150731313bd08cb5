package collection

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/n1rna/cms-admin/internal/api"
)

// fakeRemote is an in-memory collection with injectable failures
type fakeRemote struct {
	mu      sync.Mutex
	records []api.Record
	nextID  int

	listErr   error
	createErr error
	updateErr error
	deleteErr error

	// updateReply overrides the record returned by Update; nil echoes nothing
	updateReply api.Record

	// listHook, when set, supplies List's result instead of records
	listHook func(ctx context.Context) ([]api.Record, error)

	calls map[string]int
}

func newFakeRemote(records ...api.Record) *fakeRemote {
	return &fakeRemote{records: records, nextID: 100, calls: map[string]int{}}
}

func (f *fakeRemote) count(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[op]
}

func (f *fakeRemote) List(ctx context.Context) ([]api.Record, error) {
	f.mu.Lock()
	f.calls["list"]++
	hook := f.listHook
	f.mu.Unlock()

	if hook != nil {
		return hook(ctx)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := make([]api.Record, len(f.records))
	copy(out, f.records)
	return out, nil
}

func (f *fakeRemote) Create(ctx context.Context, fields api.Fields) (api.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls["create"]++
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.nextID++
	rec := api.Record{"id": json.Number(fmt.Sprint(f.nextID)), "createdAt": "2024-01-01T00:00:00Z"}
	for k, v := range fields {
		rec[k] = v
	}
	f.records = append(f.records, rec)
	return rec, nil
}

func (f *fakeRemote) Update(ctx context.Context, id api.RecordID, fields api.Fields) (api.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls["update"]++
	if f.updateErr != nil {
		return nil, f.updateErr
	}
	return f.updateReply, nil
}

func (f *fakeRemote) Delete(ctx context.Context, id api.RecordID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls["delete"]++
	if f.deleteErr != nil {
		return f.deleteErr
	}
	for i, r := range f.records {
		if r.ID() == id {
			f.records = append(f.records[:i], f.records[i+1:]...)
			return nil
		}
	}
	return &api.NotFoundError{Resource: "fake", ID: id}
}

func rec(id int, title string, extra ...string) api.Record {
	r := api.Record{"id": json.Number(fmt.Sprint(id)), "title": title}
	for i := 0; i+1 < len(extra); i += 2 {
		r[extra[i]] = extra[i+1]
	}
	return r
}

func titles(records []api.Record) []string {
	out := make([]string, len(records))
	for i, r := range records {
		out[i] = r.String("title")
	}
	return out
}

func ids(records []api.Record) []string {
	out := make([]string, len(records))
	for i, r := range records {
		out[i] = string(r.ID())
	}
	return out
}
