package main

import (
	"github.com/spf13/cobra"

	"custodia/internal/risk/handler/dto"
	"custodia/internal/risk/similarity"
)

func newSimilarityCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "similarity <a.yaml> <b.yaml>",
		Short: "Compare two records and print the weighted similarity",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := readRecord(args[0])
			if err != nil {
				return err
			}
			b, err := readRecord(args[1])
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), dto.ToSimilarityResponse(similarity.Similarity(a, b)))
		},
	}
}
