// Package companionform holds the state of one companion create/edit form:
// field values, per-field validation and the single in-flight submission.
package companionform

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/suPer8Hu/companion-studio/internal/companion"
	"go.uber.org/zap"
)

// ErrSubmitInProgress is returned by Submit while another submit is running.
var ErrSubmitInProgress = errors.New("submission already in progress")

// Store is the persistence boundary a form submits to.
type Store interface {
	CreateCompanion(ctx context.Context, f companion.Fields) (*companion.Companion, error)
	UpdateCompanion(ctx context.Context, id string, f companion.Fields) (*companion.Companion, error)
}

// Option configures a Controller.
type Option func(*Controller)

// WithSubmitTimeout bounds each persistence call. Zero means no bound.
func WithSubmitTimeout(d time.Duration) Option {
	return func(c *Controller) { c.timeout = d }
}

func WithLogger(log *zap.Logger) Option {
	return func(c *Controller) {
		if log != nil {
			c.log = log
		}
	}
}

type Controller struct {
	store   Store
	log     *zap.Logger
	timeout time.Duration

	mu          sync.Mutex
	values      companion.Fields
	errors      map[Field]string
	companionID string // empty when the form creates
	categories  []companion.Category

	submitMu   sync.Mutex
	submitting atomic.Bool
}

// New returns an empty create form that submits to store.
func New(store Store, opts ...Option) *Controller {
	c := &Controller{
		store:  store,
		log:    zap.NewNop(),
		errors: make(map[Field]string),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Initialize seeds the form from initial, or empties it when initial is nil.
// Errors from earlier passes are cleared.
func (c *Controller) Initialize(initial *companion.Companion, categories []companion.Category) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if initial != nil {
		c.values = initial.Fields()
		c.companionID = initial.ID
	} else {
		c.values = companion.Fields{}
		c.companionID = ""
	}
	c.categories = append([]companion.Category(nil), categories...)
	c.errors = make(map[Field]string)
}

// SetField updates one field and re-validates only that field.
func (c *Controller) SetField(name Field, value string) error {
	if _, ok := schema[name]; !ok {
		return fmt.Errorf("%w: %q", ErrUnknownField, name)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if err := setValue(&c.values, name, value); err != nil {
		return err
	}
	if msg, ok := checkField(name, value); ok {
		delete(c.errors, name)
	} else {
		c.errors[name] = msg
	}
	return nil
}

// SetFields is SetField for every field of f.
func (c *Controller) SetFields(f companion.Fields) {
	for _, name := range Fields {
		_ = c.SetField(name, valueOf(f, name))
	}
}

// Validate evaluates the whole schema against the current values. The
// result replaces the errors attached to the form.
func (c *Controller) Validate() ValidationErrors {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.validateLocked()
}

func (c *Controller) validateLocked() ValidationErrors {
	errs := ValidateFields(c.values)
	c.errors = errs.Map()
	return errs
}

// Submit validates the form and, when valid, creates or updates the
// companion. Validation failures are returned as ValidationErrors without
// touching the store. A Submit issued while another one is running returns
// ErrSubmitInProgress.
func (c *Controller) Submit(ctx context.Context) (*companion.Companion, error) {
	if !c.submitMu.TryLock() {
		return nil, ErrSubmitInProgress
	}
	defer c.submitMu.Unlock()

	c.mu.Lock()
	if errs := c.validateLocked(); len(errs) > 0 {
		c.mu.Unlock()
		return nil, errs
	}
	values := c.values
	id := c.companionID
	c.mu.Unlock()

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	c.submitting.Store(true)
	defer c.submitting.Store(false)

	start := time.Now()
	var (
		saved *companion.Companion
		err   error
	)
	if id == "" {
		saved, err = c.store.CreateCompanion(ctx, values)
	} else {
		saved, err = c.store.UpdateCompanion(ctx, id, values)
	}
	if err != nil {
		c.log.Warn("companion submit failed",
			zap.String("companion_id", id),
			zap.Duration("cost", time.Since(start)),
			zap.Error(err),
		)
		if id == "" {
			return nil, fmt.Errorf("create companion: %w", err)
		}
		return nil, fmt.Errorf("update companion %s: %w", id, err)
	}

	c.log.Debug("companion submitted",
		zap.String("companion_id", saved.ID),
		zap.Bool("created", id == ""),
		zap.Duration("cost", time.Since(start)),
	)
	return saved, nil
}

func (c *Controller) Submitting() bool {
	return c.submitting.Load()
}

// Editing reports whether a submit updates an existing companion.
func (c *Controller) Editing() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.companionID != ""
}

func (c *Controller) CompanionID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.companionID
}

func (c *Controller) Values() companion.Fields {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.values
}

func (c *Controller) Value(name Field) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return valueOf(c.values, name)
}

// Errors returns the violations currently attached to the form.
func (c *Controller) Errors() ValidationErrors {
	c.mu.Lock()
	defer c.mu.Unlock()
	return sortedErrors(c.errors)
}

func (c *Controller) Categories() []companion.Category {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]companion.Category(nil), c.categories...)
}

// State is a point-in-time view of the form for rendering.
type State struct {
	CompanionID string               `json:"companionId,omitempty"`
	Editing     bool                 `json:"editing"`
	Values      companion.Fields     `json:"values"`
	Errors      map[Field]string     `json:"errors"`
	Categories  []companion.Category `json:"categories"`
	Submitting  bool                 `json:"submitting"`
}

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()

	errs := make(map[Field]string, len(c.errors))
	for k, v := range c.errors {
		errs[k] = v
	}
	return State{
		CompanionID: c.companionID,
		Editing:     c.companionID != "",
		Values:      c.values,
		Errors:      errs,
		Categories:  append([]companion.Category(nil), c.categories...),
		Submitting:  c.submitting.Load(),
	}
}
