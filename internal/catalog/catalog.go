// Package catalog holds the selectable subjects and the current selection.
package catalog

import (
	"context"
	"sync"

	"cosmos/internal/models"
	"cosmos/internal/pkg/errors"
	"cosmos/internal/pkg/logger"
)

// DefaultLimit bounds a catalog load.
const DefaultLimit = 200

// Source lists renderable subjects.
type Source interface {
	ListSubjects(ctx context.Context, limit int) ([]models.Subject, error)
}

type Catalog struct {
	src   Source
	log   *logger.Logger
	limit int

	mu       sync.RWMutex
	subjects []models.Subject
	selected int64
	loadErr  error
}

func New(src Source, log *logger.Logger) *Catalog {
	if log == nil {
		log = logger.NewDefault()
	}
	return &Catalog{src: src, log: log.WithComponent("catalog"), limit: DefaultLimit}
}

// Load fetches the subjects once. On failure the catalog is left empty and
// the error is returned. A selection that survives the reload is kept,
// otherwise the first subject becomes selected.
func (c *Catalog) Load(ctx context.Context) ([]models.Subject, error) {
	subjects, err := c.src.ListSubjects(ctx, c.limit)
	if err != nil {
		c.mu.Lock()
		c.subjects = nil
		c.selected = 0
		c.loadErr = err
		c.mu.Unlock()

		c.log.Warn("catalog load failed", "error", err.Error())
		return nil, errors.Wrap(err, "catalog.load", "load subjects")
	}

	valid := make([]models.Subject, 0, len(subjects))
	for _, s := range subjects {
		if !s.Valid() {
			c.log.Warn("skipping invalid subject", "id", s.ID, "title", s.Title, "time_norm", s.TimeNorm)
			continue
		}
		valid = append(valid, s)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	prev := c.selected
	c.subjects = valid
	c.loadErr = nil
	c.selected = 0
	if indexOf(valid, prev) >= 0 {
		c.selected = prev
	} else if len(valid) > 0 {
		c.selected = valid[0].ID
	}

	c.log.Info("catalog loaded", "subjects", len(valid), "selected", c.selected)
	return append([]models.Subject(nil), valid...), nil
}

// Subjects returns a copy of the loaded subjects.
func (c *Catalog) Subjects() []models.Subject {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append(make([]models.Subject, 0, len(c.subjects)), c.subjects...)
}

// Select makes id the current selection. It does not touch any render in
// progress.
func (c *Catalog) Select(id int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if indexOf(c.subjects, id) < 0 {
		return errors.NotFound("subject", id)
	}
	c.selected = id
	return nil
}

// Selected returns a copy of the selected subject, or nil.
func (c *Catalog) Selected() *models.Subject {
	c.mu.RLock()
	defer c.mu.RUnlock()

	i := indexOf(c.subjects, c.selected)
	if i < 0 {
		return nil
	}
	s := c.subjects[i]
	return &s
}

// LoadError returns the error of the last failed load, if any.
func (c *Catalog) LoadError() error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.loadErr
}

func indexOf(subjects []models.Subject, id int64) int {
	if id <= 0 {
		return -1
	}
	for i := range subjects {
		if subjects[i].ID == id {
			return i
		}
	}
	return -1
}
