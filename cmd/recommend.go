package main

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	recommendUser  string
	recommendKinds []string
)

var recommendCmd = &cobra.Command{
	Use:   "recommend",
	Short: "Generate ranked recommendations for a user",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		e, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer e.Close()

		results, err := e.orch.GenerateRecommendations(ctx, recommendUser, parseKinds(recommendKinds))
		if err != nil {
			return eris.Wrap(err, "generate recommendations")
		}

		total := 0
		for _, recs := range results {
			total += len(recs)
		}
		zap.L().Info("recommendations ready",
			zap.String("user_id", recommendUser),
			zap.Int("total", total),
			zap.Bool("fallback", e.orch.Status(recommendUser).FallbackMode),
		)

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	},
}

func init() {
	recommendCmd.Flags().StringVar(&recommendUser, "user", "", "user ID (required)")
	recommendCmd.Flags().StringSliceVar(&recommendKinds, "kind", nil, "media kind: movie or series (repeatable, default both)")
	_ = recommendCmd.MarkFlagRequired("user")
	rootCmd.AddCommand(recommendCmd)
}
