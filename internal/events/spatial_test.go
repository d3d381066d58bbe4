package events

import (
	"context"
	"testing"

	"verstore/internal/vs"
)

func TestSpatialFilter(t *testing.T) {
	tests := []struct {
		name  string
		event vs.Event
		want  bool
	}{
		{name: "geojson commit", event: vs.Event{Kind: vs.EventFileCommitted, Name: "roads.geojson"}, want: true},
		{name: "upper case extension", event: vs.Event{Kind: vs.EventFileCommitted, Name: "ROADS.GPKG"}, want: true},
		{name: "kml commit", event: vs.Event{Kind: vs.EventFileCommitted, Name: "track.kml"}, want: true},
		{name: "non spatial commit", event: vs.Event{Kind: vs.EventFileCommitted, Name: "notes.txt"}, want: false},
		{name: "no extension", event: vs.Event{Kind: vs.EventFileCommitted, Name: "README"}, want: false},
		{name: "spatial delete", event: vs.Event{Kind: vs.EventFileDeleted, Name: "roads.geojson"}, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := &recorder{}
			f := NewSpatialFilter([]string{".geojson", "gpkg", " .KML "}, rec)
			if err := f.Handle(context.Background(), tt.event); err != nil {
				t.Fatalf("Handle() error = %v", err)
			}
			if got := len(rec.names()) == 1; got != tt.want {
				t.Errorf("forwarded = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestLogHandler(t *testing.T) {
	h := LogHandler(vs.NewNopLogger(), "spatial file ready")
	if err := h.Handle(context.Background(), vs.Event{Name: "a.kml"}); err != nil {
		t.Errorf("Handle() error = %v", err)
	}
}
