package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"custodia/internal/risk/classify"
	"custodia/internal/risk/handler/dto"
)

func newClassifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "classify <score>",
		Short: "Print the tier and compliance policy for a total score",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			score, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("score must be an integer: %w", err)
			}
			if score < 0 {
				return fmt.Errorf("score must not be negative")
			}
			_, policy := classify.Classify(score)
			return printJSON(cmd.OutOrStdout(), dto.ToPolicy(policy))
		},
	}
}
