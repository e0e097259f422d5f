package pipeline

import (
	"context"
	"encoding/base64"
	"fmt"
	"log"
	"regexp"

	"github.com/querygenie/querygenie/internal/core"
	"github.com/querygenie/querygenie/internal/core/errs"
)

var dataURIPrefix = regexp.MustCompile(`^data:.*;base64,`)

// ParseStage is the pdf-parsing job handler: base64 payload in, extracted
// text plus metadata out.
type ParseStage struct {
	extractor core.DocumentExtractor
}

func NewParseStage(extractor core.DocumentExtractor) *ParseStage {
	return &ParseStage{extractor: extractor}
}

func (s *ParseStage) Handle(ctx context.Context, job *Job) (any, error) {
	in, err := extractionInput(job)
	if err != nil {
		return nil, err
	}

	raw, err := base64.StdEncoding.DecodeString(dataURIPrefix.ReplaceAllString(in.File, ""))
	if err != nil {
		return nil, fmt.Errorf("%w: decode base64: %v", errs.ErrParse, err)
	}

	res, err := s.extractor.Extract(ctx, raw)
	if err != nil {
		return nil, err
	}
	if res == nil || res.Text == "" {
		return nil, fmt.Errorf("%w: extractor returned no text", errs.ErrParse)
	}

	log.Printf("pipeline: job %s extracted %d bytes of text for project %d", job.ID, len(res.Text), in.ProjectID)
	return ExtractionOutput{
		Info:      res.Info,
		Metadata:  res.Metadata,
		Text:      res.Text,
		ProjectID: in.ProjectID,
	}, nil
}
