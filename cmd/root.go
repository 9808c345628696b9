// Package cmd provides CLI commands for the zone importer.
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kreigan/zone-importer/internal/config"
	"github.com/kreigan/zone-importer/internal/logger"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var rootCmd = &cobra.Command{
	Use:   "zone-importer",
	Short: "Import BIND zone files into Azion Intelligent DNS",
	Long: `A CLI tool for moving DNS zones into Azion Intelligent DNS.

It parses BIND-style zone text, transforms the valid records into the
Intelligent DNS record format, finds or creates the destination zone and
creates the records in throttled, retried chunks.

The API token is read from the configuration file, the AZION_TOKEN
environment variable or the --token flag, in increasing order of precedence.`,
	Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringP("config", "c", "", "Path to a YAML configuration file")
	rootCmd.PersistentFlags().String("api-url", "", "Intelligent DNS API base URL (default https://api.azionapi.net)")
	rootCmd.PersistentFlags().String("token", "", "Azion personal token")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose/debug output")
	rootCmd.PersistentFlags().Bool("json", false, "Output in JSON format (structured logging)")
	rootCmd.PersistentFlags().Bool("no-color", false, "Disable colored output")
}

// globals holds what every command derives from the persistent flags.
type globals struct {
	cfg  *config.Config
	log  *logger.Logger
	json bool
}

// loadGlobals builds the logger and the effective configuration:
// file, then environment, then flags.
func loadGlobals(cmd *cobra.Command) (*globals, error) {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		return nil, fmt.Errorf("failed to get verbose flag: %w", err)
	}

	jsonOutput, err := cmd.Flags().GetBool("json")
	if err != nil {
		return nil, fmt.Errorf("failed to get json flag: %w", err)
	}

	noColor, err := cmd.Flags().GetBool("no-color")
	if err != nil {
		return nil, fmt.Errorf("failed to get no-color flag: %w", err)
	}

	configFile, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, fmt.Errorf("failed to get config flag: %w", err)
	}

	apiURL, err := cmd.Flags().GetString("api-url")
	if err != nil {
		return nil, fmt.Errorf("failed to get api-url flag: %w", err)
	}

	token, err := cmd.Flags().GetString("token")
	if err != nil {
		return nil, fmt.Errorf("failed to get token flag: %w", err)
	}

	log := logger.New(logger.Options{
		Out:     cmd.OutOrStdout(),
		ErrOut:  cmd.ErrOrStderr(),
		Verbose: verbose,
		JSON:    jsonOutput,
		NoColor: noColor,
	})

	if configFile != "" {
		log.Debug("Loading configuration from %s", configFile)
	}
	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if apiURL != "" {
		cfg.API.URL = apiURL
	}
	if token != "" {
		cfg.API.Token = token
	}

	log.Debug("API URL: %s", cfg.API.URL)
	log.Debug("API token: %s", logger.MaskSecret(cfg.API.Token))

	return &globals{cfg: cfg, log: log, json: jsonOutput}, nil
}
