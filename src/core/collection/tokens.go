package collection

import (
	"strings"
	"unicode"
)

// Token counting here is a character-level heuristic, not a real tokenizer.
// It is only used to size chunks before splitting, where being off by a few
// tokens is harmless. Swap in a proper tokenizer if exact budgets matter.

// EstimateTokenCount provides a rough token count for the given text
func EstimateTokenCount(text string) int {
	text = strings.TrimSpace(text)
	if text == "" {
		return 0
	}

	// Sequence start/end markers
	count := 2

	for _, word := range strings.Fields(text) {
		count += estimateWordTokens(word)
	}

	return count
}

func estimateWordTokens(word string) int {
	if len(word) == 1 && unicode.IsPunct(rune(word[0])) {
		return 1
	}

	// Numeric strings tend to tokenize per character
	if isNumeric(word) {
		return len(word)
	}

	// Long words get broken into sub-word pieces, roughly one per 4 characters
	if len(word) <= 4 {
		return 1
	}
	return (len(word) + 3) / 4
}

func isNumeric(word string) bool {
	for _, r := range word {
		if !unicode.IsDigit(r) && r != '.' && r != ',' {
			return false
		}
	}
	return true
}

// ChunkSizeForBudget calculates the per-chunk token size that splits
// tokenCount tokens into even chunks of at most tokenLimit tokens.
// Remaining tokens after the even division are spread across the chunks.
func ChunkSizeForBudget(tokenCount, tokenLimit int) int {
	if tokenCount <= tokenLimit {
		return tokenCount
	}

	// Ceiling division for the number of chunks
	numChunks := (tokenCount + tokenLimit - 1) / tokenLimit

	chunkSize := tokenCount / numChunks

	remainingTokens := tokenCount % tokenLimit
	if remainingTokens > 0 {
		chunkSize += remainingTokens / numChunks
	}

	return chunkSize
}
