package storage

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when no render is stored under an id.
var ErrNotFound = errors.New("render not found")

// Render is one rendered documentation model.
type Render struct {
	ID         string
	SourcePath string
	ModelHash  string
	Output     string
	Sections   []string
	UpdatedAt  time.Time
}

// RenderStore persists render results between builds.
type RenderStore interface {
	// SaveRender upserts a render by ID.
	SaveRender(ctx context.Context, r *Render) error

	// GetRender returns the render stored under id, or ErrNotFound.
	GetRender(ctx context.Context, id string) (*Render, error)

	// ListRenders returns all renders ordered by ID.
	ListRenders(ctx context.Context) ([]*Render, error)

	// FindRendersBySource returns the renders produced from one model file.
	FindRendersBySource(ctx context.Context, sourcePath string) ([]*Render, error)

	// PruneRenders deletes every render whose ID is not in keep and
	// returns the deleted records.
	PruneRenders(ctx context.Context, keep []string) ([]*Render, error)

	Close() error
}
