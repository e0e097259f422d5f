package extract

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"strings"

	"code.sajari.com/docconv"

	"github.com/querygenie/querygenie/internal/core"
	"github.com/querygenie/querygenie/internal/core/errs"
)

// infoKeys are the docconv metadata entries surfaced separately as document
// info; everything else stays in Metadata. Downstream stages only pass both
// maps through, so the split is informational.
var infoKeys = map[string]bool{
	"Pages":        true,
	"Page count":   true,
	"Author":       true,
	"Title":        true,
	"CreationDate": true,
}

// DocconvExtractor implements core.DocumentExtractor for PDFs using
// sajari/docconv.
type DocconvExtractor struct {
	contentType string
}

func NewDocconvExtractor() *DocconvExtractor {
	return &DocconvExtractor{contentType: "application/pdf"}
}

// Extract parses the raw bytes and returns the document text with metadata.
// Empty extraction results are reported as parse errors so the job worker
// can apply its retry policy.
func (e *DocconvExtractor) Extract(ctx context.Context, data []byte) (*core.Extracted, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty document", errs.ErrParse)
	}

	res, err := docconv.Convert(bytes.NewReader(data), e.contentType, false)
	if err != nil {
		return nil, fmt.Errorf("%w: docconv %s: %v", errs.ErrParse, e.contentType, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	text := strings.TrimSpace(res.Body)
	if text == "" {
		log.Printf("extract: docconv produced no text for %s document (%d bytes)", e.contentType, len(data))
		return nil, fmt.Errorf("%w: no text extracted", errs.ErrParse)
	}

	info := make(map[string]string)
	meta := make(map[string]string, len(res.Meta))
	for k, v := range res.Meta {
		if infoKeys[k] {
			info[k] = v
		} else {
			meta[k] = v
		}
	}

	return &core.Extracted{Info: info, Metadata: meta, Text: text}, nil
}

var _ core.DocumentExtractor = (*DocconvExtractor)(nil)
