package main

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"custodia/internal/risk/engine"
	"custodia/internal/risk/handler/dto"
	"custodia/internal/risk/models"
	"custodia/internal/risk/notify"
	"custodia/internal/risk/remediation"
	"custodia/internal/risk/safeguard"
	"custodia/internal/risk/store/memory"
	id "custodia/pkg/domain"
)

type evaluateFlags struct {
	against       string
	weights       string
	rules         string
	certified     []string
	noRemediation bool
}

func newEvaluateCmd() *cobra.Command {
	var flags evaluateFlags
	cmd := &cobra.Command{
		Use:   "evaluate <record.yaml>",
		Short: "Score, classify and remediate one record in memory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEvaluate(cmd, args[0], flags)
		},
	}
	f := cmd.Flags()
	f.StringVar(&flags.against, "against", "", "YAML list of tenant records to check for duplicates")
	f.StringVar(&flags.weights, "weights", "", "Weight table override (YAML)")
	f.StringVar(&flags.rules, "rules", "", "Additional consistency rules (YAML)")
	f.StringSliceVar(&flags.certified, "certified", nil, "Providers holding a certified safeguard")
	f.BoolVar(&flags.noRemediation, "no-remediation", false, "Score and classify only")
	return cmd
}

func runEvaluate(cmd *cobra.Command, path string, flags evaluateFlags) error {
	record, err := readRecord(path)
	if err != nil {
		return err
	}
	if record.TenantID.IsNil() {
		record.TenantID = id.TenantID(uuid.New())
	}

	var candidates []*models.TreatmentRecord
	if flags.against != "" {
		if candidates, err = readRecords(flags.against); err != nil {
			return err
		}
		// Records without a tenant belong to the evaluated record's tenant.
		for _, c := range candidates {
			if c.TenantID.IsNil() {
				c.TenantID = record.TenantID
			}
		}
	}

	scorer, err := loadScorer(flags.weights)
	if err != nil {
		return err
	}
	validator, err := loadValidator(flags.rules)
	if err != nil {
		return err
	}

	opts := []engine.Option{
		engine.WithResolver(safeguard.NewResolver(safeguard.NewStatic(flags.certified...))),
	}
	if !flags.noRemediation {
		orchestrator := remediation.New(memory.NewArtifacts(), memory.NewTasks(), notify.NewMemory(),
			remediation.WithClaims(memory.NewClaims()))
		opts = append(opts, engine.WithOrchestrator(orchestrator))
	}

	result, err := engine.New(scorer, validator, opts...).Evaluate(cmd.Context(), engine.Input{
		Record:        record,
		TenantRecords: sameTenant(record, candidates),
	})
	if err != nil {
		return fmt.Errorf("evaluate %s: %w", path, err)
	}
	return printJSON(cmd.OutOrStdout(), dto.ToEvaluationResponse(result))
}

func sameTenant(record *models.TreatmentRecord, candidates []*models.TreatmentRecord) []*models.TreatmentRecord {
	out := make([]*models.TreatmentRecord, 0, len(candidates))
	for _, c := range candidates {
		if c.TenantID == record.TenantID && c.ID != record.ID {
			out = append(out, c)
		}
	}
	return out
}
