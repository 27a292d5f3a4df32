package main

import (
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
)

var (
	cacheAddr string
	cacheUser string
)

// The result cache lives inside a running serve process, so these commands
// talk to its API rather than touching local state.
var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect or clear the result cache of a running server",
}

var cacheStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show a user's cache and fallback status",
	RunE: func(cmd *cobra.Command, args []string) error {
		if cacheUser == "" {
			return eris.New("cache: --user is required for status")
		}
		url := fmt.Sprintf("%s/api/users/%s/status", cacheAddr, cacheUser)

		req, err := http.NewRequestWithContext(cmd.Context(), http.MethodGet, url, nil)
		if err != nil {
			return eris.Wrap(err, "cache: build request")
		}
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			return eris.Wrap(err, "cache: request status")
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return eris.Errorf("cache: server returned %s", resp.Status)
		}
		_, err = io.Copy(os.Stdout, resp.Body)
		return eris.Wrap(err, "cache: read response")
	},
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Clear cached recommendations (one user with --user, otherwise all)",
	RunE: func(cmd *cobra.Command, args []string) error {
		url := cacheAddr + "/api/cache"
		if cacheUser != "" {
			url = fmt.Sprintf("%s/api/users/%s/cache", cacheAddr, cacheUser)
		}

		req, err := http.NewRequestWithContext(cmd.Context(), http.MethodDelete, url, nil)
		if err != nil {
			return eris.Wrap(err, "cache: build request")
		}
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			return eris.Wrap(err, "cache: request clear")
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusNoContent {
			return eris.Errorf("cache: server returned %s", resp.Status)
		}
		fmt.Fprintln(os.Stdout, "cache cleared")
		return nil
	},
}

func init() {
	cacheCmd.PersistentFlags().StringVar(&cacheAddr, "addr", "http://localhost:8080", "address of the running serve process")
	cacheCmd.PersistentFlags().StringVar(&cacheUser, "user", "", "user ID")

	cacheCmd.AddCommand(cacheStatusCmd, cacheClearCmd)
	rootCmd.AddCommand(cacheCmd)
}
