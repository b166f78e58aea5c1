package weaviate_test

import (
	"errors"
	"fmt"
	"testing"

	"raglayer/src/storage/weaviate"
)

func TestIsAlreadyExists(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{
			name: "nil error",
			err:  nil,
			want: false,
		},
		{
			name: "class already exists",
			err:  fmt.Errorf("status code: 422, error: class name Collection_1 already exists"),
			want: true,
		},
		{
			name: "wrapped already exists",
			err:  fmt.Errorf("failed to create class: %w", errors.New("already exists")),
			want: true,
		},
		{
			name: "unrelated error",
			err:  errors.New("connection refused"),
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := weaviate.IsAlreadyExists(tt.err); got != tt.want {
				t.Errorf("IsAlreadyExists(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}
