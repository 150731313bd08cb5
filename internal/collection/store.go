// Package collection keeps the client-side copy of one remote collection
// and the filtered, sorted view derived from it.
package collection

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/n1rna/cms-admin/internal/api"
	"github.com/n1rna/cms-admin/internal/logger"
)

var (
	// ErrSuperseded is returned by Load when a newer Load was issued before
	// this one completed; its response was discarded
	ErrSuperseded = errors.New("load superseded by a newer request")
	// ErrDetached is returned when a request completes after Detach; its
	// result was not applied
	ErrDetached = errors.New("collection detached")
)

// Remote is the REST collection a Store mirrors. *api.Collection implements it.
type Remote interface {
	List(ctx context.Context) ([]api.Record, error)
	Create(ctx context.Context, fields api.Fields) (api.Record, error)
	Update(ctx context.Context, id api.RecordID, fields api.Fields) (api.Record, error)
	Delete(ctx context.Context, id api.RecordID) error
}

// Options configures a Store
type Options struct {
	// Resource names the collection in errors and logs
	Resource    string
	SearchField string
	SortKey     string
	SortDir     SortDir
}

// State is a consistent snapshot of a Store
type State struct {
	Items    []api.Record
	Filtered []api.Record
	Query    string
	SortKey  string
	SortDir  SortDir
	Loaded   bool
}

// Store holds the authoritative list of one collection. Filtered is
// recomputed from items, the query and the sort under the same lock as every
// change, so readers never see the two out of step. Records handed out are
// shared and must be treated as read-only.
type Store struct {
	remote   Remote
	resource string

	mu       sync.Mutex
	items    []api.Record
	filtered []api.Record
	query    Query
	loaded   bool
	loadSeq  uint64
	detached bool
}

// New creates an empty store
func New(remote Remote, opts Options) *Store {
	dir := opts.SortDir
	if dir == "" {
		dir = Asc
	}
	s := &Store{
		remote:   remote,
		resource: opts.Resource,
		items:    []api.Record{},
		query: Query{
			SearchField: opts.SearchField,
			SortKey:     opts.SortKey,
			SortDir:     dir,
		},
	}
	s.recompute()
	return s
}

// recompute must be called with mu held
func (s *Store) recompute() {
	s.filtered = Compute(s.items, s.query)
}

// Load replaces the list with the server's. On failure the previous list
// is kept. When Load is called again before an earlier call completes, only
// the latest response is applied.
func (s *Store) Load(ctx context.Context) error {
	s.mu.Lock()
	s.loadSeq++
	seq := s.loadSeq
	s.mu.Unlock()

	records, err := s.remote.List(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.detached {
		return ErrDetached
	}
	if seq != s.loadSeq {
		logger.Debug("%s: discarding load #%d, #%d is newer", s.resource, seq, s.loadSeq)
		return ErrSuperseded
	}
	if err != nil {
		return fmt.Errorf("failed to load %s: %w", s.resource, err)
	}

	s.items = slices.Clone(records)
	s.loaded = true
	s.recompute()
	return nil
}

// Add creates a record and appends the server's copy once it is confirmed
func (s *Store) Add(ctx context.Context, fields api.Fields) (api.Record, error) {
	created, err := s.remote.Create(ctx, fields)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s record: %w", s.resource, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.detached {
		return created, ErrDetached
	}

	// a load that completed meanwhile may already contain the record
	if i := s.indexOf(created.ID()); i >= 0 {
		s.items[i] = created
	} else {
		s.items = append(s.items, created)
	}
	s.recompute()
	return created, nil
}

// Edit updates a record and merges the submitted fields, then any fields
// the server returned, into the local copy. Fields not submitted keep their
// values; id and createdAt never change.
func (s *Store) Edit(ctx context.Context, id api.RecordID, fields api.Fields) (api.Record, error) {
	s.mu.Lock()
	known := s.indexOf(id) >= 0
	s.mu.Unlock()
	if !known {
		return nil, &api.NotFoundError{Resource: s.resource, ID: id}
	}

	returned, err := s.remote.Update(ctx, id, fields)
	if err != nil {
		return nil, fmt.Errorf("failed to update %s record %s: %w", s.resource, id, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.detached {
		return nil, ErrDetached
	}

	i := s.indexOf(id)
	if i < 0 {
		logger.Debug("%s: record %s left the list while its update was in flight", s.resource, id)
		return api.Record(fields).Merge(returned), nil
	}

	updated := s.items[i].Merge(fields).Merge(returned)
	s.items[i] = updated
	s.recompute()
	return updated, nil
}

// Remove deletes a record. Removing a record the server no longer has
// succeeds, so a repeated Remove is a no-op.
func (s *Store) Remove(ctx context.Context, id api.RecordID) error {
	err := s.remote.Delete(ctx, id)
	var notFound *api.NotFoundError
	if err != nil && !errors.As(err, &notFound) {
		return fmt.Errorf("failed to delete %s record %s: %w", s.resource, id, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.detached {
		return ErrDetached
	}

	if i := s.indexOf(id); i >= 0 {
		s.items = slices.Delete(s.items, i, i+1)
		s.recompute()
	}
	return nil
}

// SetQuery changes the search text
func (s *Store) SetQuery(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.query.Text = text
	s.recompute()
}

// SetSort sorts by key. Choosing the active key again flips the direction;
// a new key starts in dir, or ascending when dir is empty.
func (s *Store) SetSort(key string, dir SortDir) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if key != "" && key == s.query.SortKey {
		s.query.SortDir = s.query.SortDir.Flip()
	} else {
		if dir == "" {
			dir = Asc
		}
		s.query.SortKey = key
		s.query.SortDir = dir
	}
	s.recompute()
}

// SortBy sorts by key in dir, or ascending when dir is empty, whatever the
// current sort is
func (s *Store) SortBy(key string, dir SortDir) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if dir == "" {
		dir = Asc
	}
	s.query.SortKey = key
	s.query.SortDir = dir
	s.recompute()
}

// ClearSort returns to natural list order
func (s *Store) ClearSort() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.query.SortKey = ""
	s.query.SortDir = Asc
	s.recompute()
}

// Get returns the record with id
func (s *Store) Get(id api.RecordID) (api.Record, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.indexOf(id); i >= 0 {
		return s.items[i], true
	}
	return nil, false
}

// Items returns the authoritative list
func (s *Store) Items() []api.Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.items)
}

// Filtered returns the searched and sorted view
func (s *Store) Filtered() []api.Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.filtered)
}

// Snapshot returns the list, the view and the query taken together
func (s *Store) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return State{
		Items:    slices.Clone(s.items),
		Filtered: slices.Clone(s.filtered),
		Query:    s.query.Text,
		SortKey:  s.query.SortKey,
		SortDir:  s.query.SortDir,
		Loaded:   s.loaded,
	}
}

// Resource returns the collection name
func (s *Store) Resource() string {
	return s.resource
}

// Detach makes results of requests still in flight no-ops
func (s *Store) Detach() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.detached = true
}

// indexOf must be called with mu held
func (s *Store) indexOf(id api.RecordID) int {
	if id == "" {
		return -1
	}
	return slices.IndexFunc(s.items, func(r api.Record) bool { return r.ID() == id })
}
