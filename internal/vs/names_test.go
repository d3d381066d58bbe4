package vs_test

import (
	"errors"
	"strings"
	"testing"

	"verstore/internal/vs"
)

func TestValidateName(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{name: "plain", input: "roads.geojson"},
		{name: "spaces", input: "survey points.csv"},
		{name: "unicode", input: "carte-été.kml"},
		{name: "empty", input: "", wantErr: true},
		{name: "dot", input: ".", wantErr: true},
		{name: "dot dot", input: "..", wantErr: true},
		{name: "slash", input: "a/b.txt", wantErr: true},
		{name: "backslash", input: `a\b.txt`, wantErr: true},
		{name: "control", input: "a\nb", wantErr: true},
		{name: "too long", input: strings.Repeat("x", 256), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := vs.ValidateName("file name", tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ValidateName(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, vs.ErrInvalidArgument) {
				t.Errorf("ValidateName(%q) error = %v, want ErrInvalidArgument", tt.input, err)
			}
		})
	}
}

func TestDefaultFolder(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{input: "roads.geojson", want: "roads"},
		{input: "survey points.csv", want: "survey_points"},
		{input: "README", want: "README"},
		{input: ".env", want: ".env"},
		{input: "archive.tar.gz", want: "archive.tar"},
	}
	for _, tt := range tests {
		if got := vs.DefaultFolder(tt.input); got != tt.want {
			t.Errorf("DefaultFolder(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestStorageKey(t *testing.T) {
	hash := "0123456789abcdef0123456789abcdef0123456789abcdef0123456789abcdef"

	got := vs.StorageKey("o1", "p1", "roads", "roads.geojson", 3, hash, "v-1")
	want := "owners/o1/projects/p1/roads/roads_v3-0123456789ab-v-1.geojson"
	if got != want {
		t.Errorf("StorageKey() = %q, want %q", got, want)
	}

	if a, b := vs.StorageKey("o1", "p1", "f", "a.txt", 1, hash, "v-1"), vs.StorageKey("o1", "p1", "f", "a.txt", 1, "ffff"+hash[4:], "v-1"); a == b {
		t.Errorf("keys for different content collide: %s", a)
	}

	// Racing writers of the same bytes must never share a key.
	if a, b := vs.StorageKey("o1", "p1", "f", "a.txt", 1, hash, "v-1"), vs.StorageKey("o1", "p1", "f", "a.txt", 1, hash, "v-2"); a == b {
		t.Errorf("keys for different versions collide: %s", a)
	}

	if !strings.HasPrefix(got, vs.ProjectKeyPrefix("o1", "p1")) {
		t.Errorf("StorageKey() = %q, want prefix %q", got, vs.ProjectKeyPrefix("o1", "p1"))
	}
}
