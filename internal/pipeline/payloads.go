package pipeline

import (
	"fmt"

	"github.com/querygenie/querygenie/internal/core/errs"
)

// ExtractionInput is the pdf-parsing stage payload: the uploaded file as
// base64 (optionally with a data-URI prefix) and the owning project.
type ExtractionInput struct {
	File      string `json:"file"`
	ProjectID int64  `json:"projectId"`
}

// ExtractionOutput is what the pdf-parsing stage produces.
type ExtractionOutput struct {
	Info      map[string]string `json:"info"`
	Metadata  map[string]string `json:"metadata"`
	Text      string            `json:"text"`
	ProjectID int64             `json:"projectId"`
}

// IndexingInput is the file-processing stage payload. It is built from an
// ExtractionOutput by nextIndexingJob; the project id is an explicit
// passthrough from the source job, never inherited implicitly.
type IndexingInput struct {
	Info      map[string]string `json:"info"`
	Metadata  map[string]string `json:"metadata"`
	Text      string            `json:"text"`
	ProjectID int64             `json:"projectId"`
}

// IndexingOutput reports how many vector records an indexing run produced.
type IndexingOutput struct {
	VectorCount int64 `json:"vectorCount"`
}

// extractionInput validates the payload at the queue boundary, failing fast
// instead of deep optional access inside the stage.
func extractionInput(j *Job) (ExtractionInput, error) {
	in, ok := j.Data.(ExtractionInput)
	if !ok {
		return ExtractionInput{}, fmt.Errorf("%w: job %s carries %T, want ExtractionInput", errs.ErrMissingData, j.ID, j.Data)
	}
	if in.File == "" {
		return ExtractionInput{}, fmt.Errorf("%w: file absent in job %s", errs.ErrMissingData, j.ID)
	}
	return in, nil
}

func indexingInput(j *Job) (IndexingInput, error) {
	in, ok := j.Data.(IndexingInput)
	if !ok {
		return IndexingInput{}, fmt.Errorf("%w: job %s carries %T, want IndexingInput", errs.ErrMissingData, j.ID, j.Data)
	}
	if in.Text == "" || in.ProjectID == 0 {
		return IndexingInput{}, fmt.Errorf("%w: text or projectId absent in job %s", errs.ErrMissingData, j.ID)
	}
	return in, nil
}

// nextIndexingJob is the typed transition from a completed pdf-parsing job
// to its file-processing successor. The project id is copied from the source
// job's input by the stage; here it travels inside the stage output.
func nextIndexingJob(parsed *Job, out ExtractionOutput, opts JobOptions) *Job {
	return newJob(parsed.Name+suffixEmbed, IndexingInput{
		Info:      out.Info,
		Metadata:  out.Metadata,
		Text:      out.Text,
		ProjectID: out.ProjectID,
	}, opts)
}

// resolveProjectID pulls a project id out of any stage payload for the
// failure handler. Zero means unresolvable.
func resolveProjectID(j *Job) int64 {
	switch data := j.Data.(type) {
	case ExtractionInput:
		return data.ProjectID
	case ExtractionOutput:
		return data.ProjectID
	case IndexingInput:
		return data.ProjectID
	default:
		return 0
	}
}
