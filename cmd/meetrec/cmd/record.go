// ============================================================================
// meetrec - Meeting Recorder
// ============================================================================
//
// Package:     cmd
// Description: CLI command for the interactive recorder
// Author:      Mike Stoffels with Claude
// Created:     2025-12-11
// License:     MIT
// ============================================================================

package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/msto63/meetrec/internal/recorder"
	"github.com/msto63/meetrec/internal/recorder/ui"
)

var recordCmd = &cobra.Command{
	Use:     "record",
	Aliases: []string{"rec"},
	Short:   "Start the interactive recorder",
	Long: `Starts the interactive recorder.

Record a meeting, review it with playback and seeking, send it for
transcription and save it under a title. Logs are written to
<data_dir>/meetrec.log.

Keys:
  r / Space   Start / stop recording
  p           Play / pause
  Left/Right  Seek 5 seconds
  click       Seek on the waveform
  u           Transcribe
  1-9         Jump to a topic
  c           Copy transcript
  s           Save (enter title, Enter to confirm, Esc back, Ctrl+D discard)
  d           Discard
  l / m       Cycle language / toggle summary
  q           Quit`,
	RunE: runRecord,
}

func init() {
	rootCmd.AddCommand(recordCmd)
}

func runRecord(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	logFile, err := recorder.OpenLogFile(cfg)
	if err != nil {
		return err
	}
	defer logFile.Close()

	app, err := recorder.New(recorder.Options{
		Config: cfg,
		Logger: recorder.NewLogger(cfg, logFile),
	})
	if err != nil {
		return err
	}
	defer app.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return ui.Run(ctx, ui.Config{
		Controller:  app.Controller,
		Navigator:   app.Navigator,
		Preferences: app,
	})
}
