package extract

import (
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/fundmatch/lendmatch/internal/model"
)

// FileSource reads candidate rule bundles from YAML files, the structured
// shape the extraction collaborator writes after processing a document.
// It also serves as the offline path: a hand-authored bundle ingests the
// same way an extracted one does.
type FileSource struct{}

// NewFileSource creates a file-backed candidate source.
func NewFileSource() *FileSource {
	return &FileSource{}
}

// ExtractRules parses the document bytes as a YAML candidate bundle. The
// known-parameter list is unused here; a live collaborator uses it to
// prefer existing field names.
func (f *FileSource) ExtractRules(_ context.Context, document []byte, _ []model.ParameterDefinition) (*model.CandidateSet, error) {
	var set model.CandidateSet
	if err := yaml.Unmarshal(document, &set); err != nil {
		return nil, fmt.Errorf("failed to parse candidate bundle: %w", err)
	}
	if len(set.Candidates) == 0 {
		return nil, fmt.Errorf("candidate bundle contains no rules")
	}
	return &set, nil
}

// LoadBundle reads and parses a candidate bundle from disk.
func (f *FileSource) LoadBundle(ctx context.Context, path string) (*model.CandidateSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read candidate bundle: %w", err)
	}
	return f.ExtractRules(ctx, data, nil)
}
