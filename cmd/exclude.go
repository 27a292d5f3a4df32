package main

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/screenpick/screenpick/internal/model"
)

var (
	excludeUser string
	excludeID   string
	excludeKind string
)

var excludeCmd = &cobra.Command{
	Use:   "exclude",
	Short: "Manage a user's not-interested list",
}

var excludeAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Mark a title not interested",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		e, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer e.Close()

		item := model.ExclusionItem{
			CatalogID: excludeID,
			Kind:      model.ParseMediaKind(excludeKind),
		}

		// Snapshot the title's tags now; rejection statistics are derived
		// from exclusions without ever re-fetching the catalog.
		if detail, derr := e.throttled().Details(ctx, excludeID); derr == nil {
			item.Title = detail.Title
			item.Genres = detail.Genres
			item.Directors = detail.Directors
			item.Actors = detail.Actors
			item.Kind = detail.Kind
		} else {
			zap.L().Warn("catalog lookup failed, storing bare exclusion", zap.Error(derr))
		}

		if err := e.orch.AddExclusion(ctx, excludeUser, item); err != nil {
			return eris.Wrap(err, "add exclusion")
		}

		zap.L().Info("exclusion added",
			zap.String("user_id", excludeUser),
			zap.String("catalog_id", excludeID),
		)
		return nil
	},
}

var excludeListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the user's not-interested titles",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		items, err := st.ListExclusions(ctx, excludeUser)
		if err != nil {
			return eris.Wrap(err, "list exclusions")
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(items)
	},
}

var excludeRemoveCmd = &cobra.Command{
	Use:   "remove",
	Short: "Lift a not-interested mark",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		e, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer e.Close()

		if err := e.orch.RemoveExclusion(ctx, excludeUser, excludeID); err != nil {
			return eris.Wrap(err, "remove exclusion")
		}

		zap.L().Info("exclusion removed",
			zap.String("user_id", excludeUser),
			zap.String("catalog_id", excludeID),
		)
		return nil
	},
}

func init() {
	excludeCmd.PersistentFlags().StringVar(&excludeUser, "user", "", "user ID (required)")
	_ = excludeCmd.MarkPersistentFlagRequired("user")

	for _, c := range []*cobra.Command{excludeAddCmd, excludeRemoveCmd} {
		c.Flags().StringVar(&excludeID, "id", "", "catalog ID (required)")
		_ = c.MarkFlagRequired("id")
	}
	excludeAddCmd.Flags().StringVar(&excludeKind, "kind", "movie", "media kind: movie or series")

	excludeCmd.AddCommand(excludeAddCmd, excludeListCmd, excludeRemoveCmd)
	rootCmd.AddCommand(excludeCmd)
}
