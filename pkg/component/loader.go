// Package component loads reusable step-sequence definitions and expands
// component steps into inline steps with bound parameters.
package component

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ormasoftchile/splint/pkg/schema"
)

// ErrNotFound signals that a loader has no component under the requested id.
var ErrNotFound = errors.New("component not found")

// Loader fetches component definitions by id.
type Loader interface {
	Load(ctx context.Context, id string) (*schema.Component, error)
}

// FileLoader reads components from a directory, trying
// <id>.component.yaml first and <id>.yaml second.
type FileLoader struct {
	Dir string
}

func (l *FileLoader) Load(ctx context.Context, id string) (*schema.Component, error) {
	for _, name := range []string{id + ".component.yaml", id + ".yaml"} {
		path := filepath.Join(l.Dir, name)
		comp, err := schema.LoadComponentFile(path)
		if err == nil {
			return comp, nil
		}
		if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("component %q: %w", id, err)
		}
	}
	return nil, fmt.Errorf("component %q: %w", id, ErrNotFound)
}

// MemoryLoader serves components from a fixed map. Used by tests and by
// callers that assemble components programmatically.
type MemoryLoader struct {
	Components map[string]*schema.Component
}

func (l *MemoryLoader) Load(ctx context.Context, id string) (*schema.Component, error) {
	comp, ok := l.Components[id]
	if !ok {
		return nil, fmt.Errorf("component %q: %w", id, ErrNotFound)
	}
	return comp, nil
}
