package collection_test

import (
	"testing"

	"raglayer/src/core/collection"
)

func TestEstimateTokenCount(t *testing.T) {
	tests := []struct {
		name string
		text string
		want int
	}{
		{
			name: "empty",
			text: "",
			want: 0,
		},
		{
			name: "whitespace only",
			text: "   \n\t ",
			want: 0,
		},
		{
			name: "short words",
			text: "go is fun",
			want: 5,
		},
		{
			name: "long word splits into pieces",
			text: "internationalization",
			want: 7,
		},
		{
			name: "numbers count per character",
			text: "route 66",
			want: 6,
		},
		{
			name: "standalone punctuation",
			text: "yes , no",
			want: 5,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := collection.EstimateTokenCount(tt.text)
			if got != tt.want {
				t.Errorf("EstimateTokenCount(%q) = %d, want %d", tt.text, got, tt.want)
			}
		})
	}
}

func TestChunkSizeForBudget(t *testing.T) {
	tests := []struct {
		name       string
		tokenCount int
		tokenLimit int
		wantSize   int
	}{
		{
			name:       "below limit",
			tokenCount: 100,
			tokenLimit: 500,
			wantSize:   100,
		},
		{
			name:       "equal to limit",
			tokenCount: 500,
			tokenLimit: 500,
			wantSize:   500,
		},
		{
			name:       "above limit",
			tokenCount: 1530,
			tokenLimit: 500,
			wantSize:   389,
		},
		{
			name:       "well above limit",
			tokenCount: 2242,
			tokenLimit: 500,
			wantSize:   496,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := collection.ChunkSizeForBudget(tt.tokenCount, tt.tokenLimit)
			if got != tt.wantSize {
				t.Errorf("ChunkSizeForBudget(%d, %d) = %d, want %d",
					tt.tokenCount, tt.tokenLimit, got, tt.wantSize)
			}
		})
	}
}
