package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"custodia/internal/risk/handler/dto"
)

type validateOutput struct {
	Valid      bool            `json:"valid"`
	Violations []dto.Violation `json:"violations"`
}

func newValidateCmd() *cobra.Command {
	var (
		rules  string
		strict bool
	)
	cmd := &cobra.Command{
		Use:   "validate <record.yaml>",
		Short: "Run the consistency rules against a record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			record, err := readRecord(args[0])
			if err != nil {
				return err
			}
			validator, err := loadValidator(rules)
			if err != nil {
				return err
			}
			violations := validator.Validate(record)
			out := validateOutput{
				Valid:      len(violations) == 0,
				Violations: make([]dto.Violation, 0, len(violations)),
			}
			for _, v := range violations {
				out.Violations = append(out.Violations, dto.ToViolation(v))
			}
			if err := printJSON(cmd.OutOrStdout(), out); err != nil {
				return err
			}
			if strict && !out.Valid {
				return fmt.Errorf("%d consistency violation(s)", len(violations))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&rules, "rules", "", "Additional consistency rules (YAML)")
	cmd.Flags().BoolVar(&strict, "strict", false, "Exit non-zero when violations are found")
	return cmd
}
