package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/msto63/meetrec/pkg/core/apperr"
	"github.com/msto63/meetrec/pkg/core/config"
)

var (
	cfgFile string
	verbose bool
	apiBase string
)

var rootCmd = &cobra.Command{
	Use:   "meetrec",
	Short: "meetrec - Meeting Recorder",
	Long: `meetrec records meetings from the microphone, plays them back,
sends them to a transcription service and keeps titled recordings
together with their transcript.

Commands:
  record      - Interactive recorder (record, review, transcribe, save)
  transcribe  - Transcribe an existing WAV file
  recordings  - List, show and delete saved recordings
  devices     - List audio devices
  doctor      - Check microphone, transcription service and storage
  config      - Print the effective configuration`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command
func Execute() error {
	err := rootCmd.Execute()
	if err != nil {
		printError(err)
	}
	return err
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $MEETREC_CONFIG, ./meetrec.toml or ~/.config/meetrec/config.toml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().StringVar(&apiBase, "api-base", "", "transcription service base URL")
}

// loadConfig resolves the configuration from flags, file and environment
func loadConfig() (*config.Config, error) {
	var cfg *config.Config
	var err error
	if cfgFile != "" {
		cfg, err = config.Load(cfgFile)
	} else {
		cfg, err = config.LoadFromEnv()
	}
	if err != nil {
		return nil, err
	}

	if apiBase != "" {
		cfg.API.BaseURL = apiBase
	}
	if verbose {
		cfg.General.LogLevel = "debug"
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func printError(err error) {
	msg := apperr.UserMessage(err)
	if verbose {
		msg = err.Error()
	}
	fmt.Fprintf(os.Stderr, "Error: %s\n", msg)
}
