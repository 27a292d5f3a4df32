package main

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/screenpick/screenpick/internal/model"
)

var historyUser string

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Manage a user's watch history",
}

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the user's watch history, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		items, err := st.ListHistory(ctx, historyUser)
		if err != nil {
			return eris.Wrap(err, "list history")
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(items)
	},
}

var (
	historyTitle         string
	historyCatalogID     string
	historyYear          int
	historyGenres        []string
	historyCountries     []string
	historyDirectors     []string
	historyActors        []string
	historyUserRating    float64
	historyCatalogRating float64
)

var historyAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Record a watched title",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		e, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer e.Close()

		// With a catalog ID and no tags, fill the snapshot from the catalog
		// so the profile builder has signal to work with.
		item := model.WatchHistoryItem{
			CatalogID:     historyCatalogID,
			Title:         historyTitle,
			Genres:        historyGenres,
			Year:          historyYear,
			Countries:     historyCountries,
			Directors:     historyDirectors,
			Actors:        historyActors,
			UserRating:    historyUserRating,
			CatalogRating: historyCatalogRating,
		}
		if historyCatalogID != "" && len(historyGenres) == 0 {
			if detail, derr := e.throttled().Details(ctx, historyCatalogID); derr == nil {
				item.Title = detail.Title
				item.Genres = detail.Genres
				item.Year = detail.Year
				item.Countries = detail.Countries
				item.Directors = detail.Directors
				item.Actors = detail.Actors
				item.CatalogRating = detail.Rating
			} else {
				zap.L().Warn("catalog lookup failed, storing bare item", zap.Error(derr))
			}
		}

		added, err := e.store.AddHistory(ctx, historyUser, item)
		if err != nil {
			return eris.Wrap(err, "add history item")
		}

		zap.L().Info("history item added",
			zap.String("user_id", historyUser),
			zap.String("title", added.Title),
		)
		return nil
	},
}

func init() {
	historyCmd.PersistentFlags().StringVar(&historyUser, "user", "", "user ID (required)")
	_ = historyCmd.MarkPersistentFlagRequired("user")

	historyAddCmd.Flags().StringVar(&historyTitle, "title", "", "title")
	historyAddCmd.Flags().StringVar(&historyCatalogID, "id", "", "catalog ID (enables tag lookup)")
	historyAddCmd.Flags().IntVar(&historyYear, "year", 0, "release year")
	historyAddCmd.Flags().StringSliceVar(&historyGenres, "genre", nil, "genre (repeatable)")
	historyAddCmd.Flags().StringSliceVar(&historyCountries, "country", nil, "country (repeatable)")
	historyAddCmd.Flags().StringSliceVar(&historyDirectors, "director", nil, "director (repeatable)")
	historyAddCmd.Flags().StringSliceVar(&historyActors, "actor", nil, "actor (repeatable)")
	historyAddCmd.Flags().Float64Var(&historyUserRating, "rating", 0, "your 1-10 rating")
	historyAddCmd.Flags().Float64Var(&historyCatalogRating, "catalog-rating", 0, "catalog aggregate rating")

	historyCmd.AddCommand(historyListCmd, historyAddCmd)
	rootCmd.AddCommand(historyCmd)
}
