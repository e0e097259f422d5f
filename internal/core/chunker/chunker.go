package chunker

import (
	"fmt"
	"sync"

	"github.com/pkoukk/tiktoken-go"

	"github.com/querygenie/querygenie/internal/core"
	"github.com/querygenie/querygenie/internal/core/errs"
)

// encodingName is fixed: chunk boundaries must be stable across the whole
// corpus, so every caller shares the same tokenizer encoding.
const encodingName = "cl100k_base"

var (
	encOnce sync.Once
	enc     *tiktoken.Tiktoken
	encErr  error
)

func encoding() (*tiktoken.Tiktoken, error) {
	encOnce.Do(func() {
		enc, encErr = tiktoken.GetEncoding(encodingName)
	})
	return enc, encErr
}

// SplitIntoChunks encodes text, walks the token sequence in non-overlapping
// windows of maxTokens (the last window may be shorter), and decodes each
// window back to text. Chunks come out in original order. Empty text yields
// no chunks; maxTokens <= 0 is a caller error.
func SplitIntoChunks(text string, maxTokens int) ([]string, error) {
	if maxTokens <= 0 {
		return nil, fmt.Errorf("%w: maxTokens must be > 0, got %d", errs.ErrInvalidArgument, maxTokens)
	}
	if text == "" {
		return nil, nil
	}

	e, err := encoding()
	if err != nil {
		return nil, fmt.Errorf("load encoding %s: %w", encodingName, err)
	}

	tokens := e.Encode(text, nil, nil)
	chunks := make([]string, 0, (len(tokens)+maxTokens-1)/maxTokens)
	for i := 0; i < len(tokens); i += maxTokens {
		end := i + maxTokens
		if end > len(tokens) {
			end = len(tokens)
		}
		chunks = append(chunks, e.Decode(tokens[i:end]))
	}
	return chunks, nil
}

// GetTokenCount reports the exact token count of text under the same
// encoding SplitIntoChunks uses.
func GetTokenCount(text string) (int, error) {
	if text == "" {
		return 0, nil
	}
	e, err := encoding()
	if err != nil {
		return 0, fmt.Errorf("load encoding %s: %w", encodingName, err)
	}
	return len(e.Encode(text, nil, nil)), nil
}

// TokenChunker adapts the package functions to core.Chunker.
type TokenChunker struct{}

func (TokenChunker) Split(text string, maxTokens int) ([]string, error) {
	return SplitIntoChunks(text, maxTokens)
}

func (TokenChunker) TokenCount(text string) (int, error) {
	return GetTokenCount(text)
}

var _ core.Chunker = TokenChunker{}
