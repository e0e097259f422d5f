package core

import "context"

// Extracted is the result of pulling text out of a raw document.
type Extracted struct {
	Info     map[string]string
	Metadata map[string]string
	Text     string
}

// DocumentExtractor turns raw file bytes into text plus metadata.
// Implementations return errs.ErrParse when no text can be produced.
type DocumentExtractor interface {
	Extract(ctx context.Context, data []byte) (*Extracted, error)
}

// Chunker splits text into token-bounded pieces using a fixed encoding.
type Chunker interface {
	Split(text string, maxTokens int) ([]string, error)
	TokenCount(text string) (int, error)
}
