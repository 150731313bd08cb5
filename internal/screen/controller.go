// Package screen drives one content type's screen: the collection store
// behind its table and the create/edit form shown over it.
package screen

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"path/filepath"
	"strings"
	"sync"

	"github.com/n1rna/cms-admin/internal/api"
	"github.com/n1rna/cms-admin/internal/collection"
	"github.com/n1rna/cms-admin/internal/logger"
	"github.com/n1rna/cms-admin/internal/resource"
)

var (
	ErrNoDraft       = errors.New("no form is open")
	ErrSubmitPending = errors.New("form is already being submitted")
	ErrUnknownField  = errors.New("unknown field")
)

// Mode tells whether a form creates a record or edits one
type Mode string

const (
	ModeCreate Mode = "create"
	ModeEdit   Mode = "edit"
)

// FormDraft is the state of an open form
type FormDraft struct {
	Fields    map[string]string
	Mode      Mode
	EditingID api.RecordID
	// Pending is set while a submit is in flight
	Pending bool
	// Err holds the last submit failure
	Err error
}

func (d *FormDraft) clone() *FormDraft {
	cp := *d
	cp.Fields = maps.Clone(d.Fields)
	return &cp
}

// Controller owns the store and the form of one screen. It is safe to call
// from the goroutines that run requests.
type Controller struct {
	def   *resource.Definition
	store *collection.Store

	mu       sync.Mutex
	draft    *FormDraft
	disposed bool
}

// New creates a controller for def backed by remote
func New(def *resource.Definition, remote collection.Remote) *Controller {
	opts := collection.Options{
		Resource:    def.Key,
		SearchField: def.SearchField,
	}
	if def.DefaultSort != nil {
		opts.SortKey = def.DefaultSort.Key
		opts.SortDir = collection.SortDir(def.DefaultSort.Dir)
	}
	return &Controller{
		def:   def,
		store: collection.New(remote, opts),
	}
}

// Definition returns the content type shown by the screen
func (c *Controller) Definition() *resource.Definition {
	return c.def
}

// Store returns the collection behind the screen
func (c *Controller) Store() *collection.Store {
	return c.store
}

// Load fetches the collection. Responses overtaken by a newer Load, or
// arriving after Dispose, are dropped without error.
func (c *Controller) Load(ctx context.Context) error {
	err := c.store.Load(ctx)
	if errors.Is(err, collection.ErrSuperseded) || errors.Is(err, collection.ErrDetached) {
		return nil
	}
	return err
}

// Search sets the search text
func (c *Controller) Search(text string) {
	c.store.SetQuery(text)
}

// Sort sorts by key, flipping the direction when key is already active
func (c *Controller) Sort(key string) {
	c.store.SetSort(key, "")
}

// Delete removes a record
func (c *Controller) Delete(ctx context.Context, id api.RecordID) error {
	err := c.store.Remove(ctx, id)
	if errors.Is(err, collection.ErrDetached) {
		logger.Debug("%s: delete of %s finished after the screen closed", c.def.Key, id)
		return nil
	}
	return err
}

// OpenCreate opens an empty form with the content type's defaults
func (c *Controller) OpenCreate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.draft = &FormDraft{
		Fields: c.def.Defaults(),
		Mode:   ModeCreate,
	}
}

// OpenEdit opens a form filled from rec
func (c *Controller) OpenEdit(rec api.Record) error {
	id := rec.ID()
	if id == "" {
		return fmt.Errorf("cannot edit a %s without an id", c.def.Singular)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.draft = &FormDraft{
		Fields:    c.def.Project(rec),
		Mode:      ModeEdit,
		EditingID: id,
	}
	return nil
}

// Close discards the form. A submit still in flight completes, but its
// result no longer reaches a form.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.draft = nil
}

// Draft returns a copy of the open form, or nil
func (c *Controller) Draft() *FormDraft {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.draft == nil {
		return nil
	}
	return c.draft.clone()
}

// ChangeField sets one form value. File fields keep only the file name.
func (c *Controller) ChangeField(name, value string) error {
	field, ok := c.def.Field(name)
	if !ok {
		return fmt.Errorf("%w %q for %s", ErrUnknownField, name, c.def.Key)
	}
	if field.Kind == resource.KindFile {
		value = fileName(value)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.draft == nil {
		return ErrNoDraft
	}
	c.draft.Fields[name] = value
	return nil
}

func fileName(path string) string {
	path = strings.TrimSpace(path)
	if path == "" {
		return ""
	}
	return filepath.Base(path)
}

// Submit sends the form. On success the form closes and the saved record
// is returned; on failure the form stays open with its values and the error
// recorded. A second Submit while one is in flight fails with
// ErrSubmitPending.
func (c *Controller) Submit(ctx context.Context) (api.Record, error) {
	c.mu.Lock()
	d := c.draft
	if d == nil {
		c.mu.Unlock()
		return nil, ErrNoDraft
	}
	if d.Pending {
		c.mu.Unlock()
		return nil, ErrSubmitPending
	}
	d.Pending = true
	d.Err = nil
	mode, id := d.Mode, d.EditingID
	fields := make(api.Fields, len(d.Fields))
	for k, v := range d.Fields {
		fields[k] = v
	}
	c.mu.Unlock()

	var (
		saved api.Record
		err   error
	)
	switch mode {
	case ModeEdit:
		saved, err = c.store.Edit(ctx, id, fields)
	default:
		saved, err = c.store.Add(ctx, fields)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	d.Pending = false
	if c.disposed || errors.Is(err, collection.ErrDetached) {
		logger.Debug("%s: submit finished after the screen closed", c.def.Key)
		return saved, nil
	}
	if err != nil {
		d.Err = err
		return nil, err
	}
	if c.draft == d {
		c.draft = nil
	}
	return saved, nil
}

// Dispose releases the screen. Requests still in flight finish without
// touching its state.
func (c *Controller) Dispose() {
	c.mu.Lock()
	c.disposed = true
	c.draft = nil
	c.mu.Unlock()
	c.store.Detach()
}
