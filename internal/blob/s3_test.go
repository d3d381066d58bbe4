package blob

import (
	"context"
	"errors"
	"fmt"
	"testing"

	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"

	"verstore/internal/config"
)

func typeName(v any) string {
	return fmt.Sprintf("%T", v)
}

func TestS3Store_KeyMapping(t *testing.T) {
	tests := []struct {
		name   string
		prefix string
		key    string
		want   string
	}{
		{name: "no prefix", prefix: "", key: "owners/o1/a.txt", want: "owners/o1/a.txt"},
		{name: "prefix", prefix: "verstore", key: "owners/o1/a.txt", want: "verstore/owners/o1/a.txt"},
		{name: "prefix with slashes", prefix: "/verstore/prod/", key: "owners/o1/a.txt", want: "verstore/prod/owners/o1/a.txt"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, err := NewS3Store(context.Background(), config.StorageConfig{
				Type:              "s3",
				S3Bucket:          "blobs",
				S3Prefix:          tt.prefix,
				S3AccessKeyID:     "key",
				S3SecretAccessKey: "secret",
			})
			if err != nil {
				t.Fatalf("NewS3Store() error = %v", err)
			}

			got := store.objectKey(tt.key)
			if got != tt.want {
				t.Errorf("objectKey(%q) = %q, want %q", tt.key, got, tt.want)
			}
			if back := store.storageKey(got); back != tt.key {
				t.Errorf("storageKey(%q) = %q, want %q", got, back, tt.key)
			}
		})
	}
}

func TestIsNotFound(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "modeled not found", err: &s3types.NotFound{}, want: true},
		{name: "modeled no such key", err: fmt.Errorf("get: %w", &s3types.NoSuchKey{}), want: true},
		{name: "generic api not found", err: &smithy.GenericAPIError{Code: "NotFound"}, want: true},
		{name: "access denied", err: &smithy.GenericAPIError{Code: "AccessDenied"}, want: false},
		{name: "network", err: errors.New("connection refused"), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isNotFound(tt.err); got != tt.want {
				t.Errorf("isNotFound(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}
