package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/msto63/meetrec/internal/recorder"
	"github.com/msto63/meetrec/internal/recorder/audio"
	"github.com/msto63/meetrec/internal/recorder/store"
	"github.com/msto63/meetrec/internal/recorder/transcribe"
	"github.com/msto63/meetrec/internal/recorder/vad"
	"github.com/msto63/meetrec/pkg/core/apperr"
	"github.com/msto63/meetrec/pkg/core/logging"
)

var (
	transcribeLang      string
	transcribeNoSummary bool
	transcribeJSON      bool
	transcribeSave      string
)

var transcribeCmd = &cobra.Command{
	Use:   "transcribe <file.wav>",
	Short: "Transcribe a WAV file",
	Long: `Sends an existing WAV file to the transcription service and prints
the result.

Examples:
  meetrec transcribe meeting.wav
  meetrec transcribe meeting.wav --lang nl --no-summary
  meetrec transcribe meeting.wav --json
  meetrec transcribe meeting.wav --save "Weekly sync"`,
	Args: cobra.ExactArgs(1),
	RunE: runTranscribe,
}

func init() {
	rootCmd.AddCommand(transcribeCmd)

	transcribeCmd.Flags().StringVar(&transcribeLang, "lang", "", "language code or auto (default from config)")
	transcribeCmd.Flags().BoolVar(&transcribeNoSummary, "no-summary", false, "skip the summary")
	transcribeCmd.Flags().BoolVar(&transcribeJSON, "json", false, "print the result as JSON")
	transcribeCmd.Flags().StringVar(&transcribeSave, "save", "", "save the recording under this title")
}

func runTranscribe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := recorder.NewLogger(cfg, os.Stderr)
	if !verbose && logger.Level() < logging.LevelWarn {
		logger = logger.WithLevel(logging.LevelWarn)
	}

	path := args[0]
	duration, err := audio.ReadWAVInfo(path)
	if err != nil {
		return apperr.Wrap(err, apperr.CodeDecodeFailed, "Cannot read audio file").WithReason(path)
	}
	clip := audio.Clip{
		SourceRef:  path,
		DurationMs: duration.Milliseconds(),
		SampleRate: audio.SampleRate,
		CreatedAt:  time.Now(),
	}

	if cfg.VAD.IsEnabled() {
		checkSpeech(path, cfg.VAD.Mode)
	}

	opts := transcribe.Options{Language: cfg.API.Language, Summarize: cfg.API.SummarizeEnabled()}
	if transcribeLang != "" {
		opts.Language = transcribeLang
	}
	if transcribeNoSummary {
		opts.Summarize = false
	}

	client, err := recorder.NewClient(cfg, logger.Named("transcribe"))
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if !transcribeJSON {
		fmt.Fprintf(os.Stderr, "Transcribing %s (%s) via %s ...\n", path, transcribe.FormatTimestamp(clip.DurationMs), client.Endpoint())
	}
	result, err := client.Transcribe(ctx, clip, opts)
	if err != nil {
		return err
	}

	if transcribeJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(result); err != nil {
			return err
		}
	} else {
		fmt.Println(result.PlainText())
	}

	if transcribeSave == "" {
		return nil
	}

	recordings, err := recorder.OpenStore(cfg, logger.Named("store"))
	if err != nil {
		return err
	}
	defer recordings.Close()

	id, err := recordings.Save(ctx, store.Recording{
		Title:           transcribeSave,
		AudioRef:        path,
		Transcription:   result.FullText,
		Topics:          result.Topics,
		Summary:         result.SummaryBullets,
		DurationSeconds: clip.DurationSeconds(),
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "Saved as %s\n", id)
	return nil
}

// checkSpeech warns when the file appears to contain no speech
func checkSpeech(path string, mode int) {
	samples, rate, err := audio.ReadSamples(path)
	if err != nil {
		return
	}

	vadCfg := vad.DefaultConfig()
	vadCfg.SampleRate = rate
	vadCfg.Mode = mode
	analyzer, err := vad.NewAnalyzer(vadCfg)
	if err != nil {
		return
	}
	defer analyzer.Close()

	report, err := analyzer.Analyze(samples)
	if err != nil {
		return
	}
	if !report.HasSpeech {
		fmt.Fprintln(os.Stderr, "Warning: no speech detected in the recording")
	}
}
