package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"custodia/internal/risk/consistency"
	"custodia/internal/risk/handler/dto"
	"custodia/internal/risk/models"
	"custodia/internal/risk/scoring"
	id "custodia/pkg/domain"
)

// version is set at build time via -ldflags.
var version = "dev"

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "riskctl",
		Short:         "Score and classify treatment records offline",
		Long:          "riskctl runs the risk engine against YAML treatment records\nusing in-memory stores, and prints the result as JSON.",
		SilenceUsage:  true,
		SilenceErrors: true,
		CompletionOptions: cobra.CompletionOptions{
			HiddenDefaultCmd: true,
		},
		Version: version,
	}
	root.AddCommand(newEvaluateCmd())
	root.AddCommand(newClassifyCmd())
	root.AddCommand(newSimilarityCmd())
	root.AddCommand(newValidateCmd())
	return root
}

// readRecord loads one record file. Missing IDs are generated so the file
// can be evaluated as-is.
func readRecord(path string) (*models.TreatmentRecord, error) {
	// #nosec G304 -- path is an operator-provided CLI argument.
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read record: %w", err)
	}
	var r dto.Record
	if err := yaml.Unmarshal(raw, &r); err != nil {
		return nil, fmt.Errorf("parse record %s: %w", path, err)
	}
	return toModel(&r)
}

// readRecords loads a YAML sequence of records.
func readRecords(path string) ([]*models.TreatmentRecord, error) {
	// #nosec G304 -- path is an operator-provided CLI argument.
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read records: %w", err)
	}
	var list []dto.Record
	if err := yaml.Unmarshal(raw, &list); err != nil {
		return nil, fmt.Errorf("parse records %s: %w", path, err)
	}
	out := make([]*models.TreatmentRecord, 0, len(list))
	for i := range list {
		record, err := toModel(&list[i])
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		out = append(out, record)
	}
	return out, nil
}

func toModel(r *dto.Record) (*models.TreatmentRecord, error) {
	r.Normalize()
	if err := r.Validate(); err != nil {
		return nil, err
	}
	record, err := r.ToModel()
	if err != nil {
		return nil, err
	}
	if record.ID.IsNil() {
		record.ID = id.RecordID(uuid.New())
	}
	return record, nil
}

func loadScorer(weightsPath string) (*scoring.Scorer, error) {
	if weightsPath == "" {
		return scoring.NewScorer(scoring.DefaultWeights())
	}
	w, err := scoring.LoadWeights(weightsPath)
	if err != nil {
		return nil, err
	}
	return scoring.NewScorer(w)
}

func loadValidator(rulesPath string) (*consistency.Validator, error) {
	if rulesPath == "" {
		return consistency.New(consistency.DefaultVocabulary()), nil
	}
	rules, err := consistency.LoadRules(rulesPath)
	if err != nil {
		return nil, err
	}
	return consistency.New(consistency.DefaultVocabulary(), consistency.WithRules(rules...)), nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
