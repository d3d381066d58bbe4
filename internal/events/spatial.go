package events

import (
	"context"
	"path/filepath"
	"strings"

	"verstore/internal/vs"
)

// SpatialFilter forwards committed files whose extension marks them as
// spatial data. Everything else is ignored.
type SpatialFilter struct {
	extensions map[string]struct{}
	next       Handler
}

// NewSpatialFilter creates a filter for the given extensions (".geojson"
// or "geojson", case-insensitive).
func NewSpatialFilter(extensions []string, next Handler) *SpatialFilter {
	set := make(map[string]struct{}, len(extensions))
	for _, ext := range extensions {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		set[ext] = struct{}{}
	}
	return &SpatialFilter{extensions: set, next: next}
}

// IsSpatial reports whether name has one of the filter's extensions.
func (f *SpatialFilter) IsSpatial(name string) bool {
	_, ok := f.extensions[strings.ToLower(filepath.Ext(name))]
	return ok
}

func (f *SpatialFilter) Handle(ctx context.Context, event vs.Event) error {
	if event.Kind != vs.EventFileCommitted || !f.IsSpatial(event.Name) {
		return nil
	}
	return f.next.Handle(ctx, event)
}

// LogHandler records each event it receives. It stands in for the
// ingestion consumer when none is configured.
func LogHandler(logger vs.Logger, msg string) Handler {
	return HandlerFunc(func(_ context.Context, event vs.Event) error {
		logger.Info(msg,
			"kind", event.Kind,
			"project_id", event.ProjectID,
			"file_id", event.FileID,
			"name", event.Name,
			"version", event.Version,
			"storage_key", event.StorageKey,
		)
		return nil
	})
}
