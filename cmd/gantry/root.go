package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/spf13/cobra"

	"github.com/aretw0/gantry"
	"github.com/aretw0/gantry/internal/adapters/cache"
	"github.com/aretw0/gantry/internal/adapters/forge"
	"github.com/aretw0/gantry/internal/logging"
)

var rootCmd = &cobra.Command{
	Use:   "gantry",
	Short: "Gantry runs test and release pipelines from declarative workflow files",
	Long: `Gantry is a lightweight CI orchestrator. It gates pushes and pull requests
on format, lint and tests, keeps the changelog current on the main branch,
and publishes releases with artifacts on version tags.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String("dir", "", "Directory containing workflow files (default .gantry/workflows)")
	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug logging")
}

func newLogger(cmd *cobra.Command) *slog.Logger {
	level := slog.LevelInfo
	if debug, _ := cmd.Flags().GetBool("debug"); debug {
		level = slog.LevelDebug
	}
	return logging.New(level)
}

// baseOptions wires the adapters every pipeline-executing command shares:
// the local tar.gz cache and, when the environment carries credentials,
// the forge client.
func baseOptions(logger *slog.Logger) []gantry.Option {
	opts := []gantry.Option{
		gantry.WithLogger(logger),
		gantry.WithCacheStore(cache.NewStore("")),
	}
	if f := forgeFromEnv(); f != nil {
		opts = append(opts, gantry.WithForge(f))
	}
	return opts
}

// forgeFromEnv builds a forge client from GANTRY_FORGE_URL, GANTRY_FORGE_REPO
// and GANTRY_FORGE_TOKEN. Returns nil when the URL is unset; release and
// status reporting then degrade to no-ops.
func forgeFromEnv() *forge.Client {
	url := os.Getenv("GANTRY_FORGE_URL")
	if url == "" {
		return nil
	}
	return forge.NewClient(forge.ClientConfig{
		BaseURL: url,
		Repo:    os.Getenv("GANTRY_FORGE_REPO"),
		Token:   os.Getenv("GANTRY_FORGE_TOKEN"),
	}, http.DefaultClient)
}
