package record

import (
	"context"
	"fmt"
)

// New returns a recorder for the given backend. "" and "memory" keep
// records in memory; "sqlite" writes them to the database at path.
func New(ctx context.Context, kind, path string) (Recorder, error) {
	switch kind {
	case "", "memory":
		return NewTrace(), nil
	case "sqlite":
		s := NewSQLiteRecorder(path)
		if err := s.Init(ctx); err != nil {
			return nil, fmt.Errorf("opening output database %s: %w", path, err)
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unsupported recorder backend: %s", kind)
	}
}
