package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/msto63/meetrec/internal/recorder"
	"github.com/msto63/meetrec/internal/recorder/audio"
	"github.com/msto63/meetrec/internal/recorder/store"
	"github.com/msto63/meetrec/internal/recorder/transcribe"
	"github.com/msto63/meetrec/pkg/core/apperr"
	"github.com/msto63/meetrec/pkg/core/logging"
)

var recordingsLimit int

var recordingsCmd = &cobra.Command{
	Use:     "recordings",
	Aliases: []string{"ls", "list"},
	Short:   "Manage saved recordings",
	Long: `Lists saved recordings, newest first.

Examples:
  meetrec recordings                 # List recordings
  meetrec recordings show <id>       # Show transcript and topics
  meetrec recordings play <id>       # Play the audio
  meetrec recordings delete <id>     # Delete recording and audio`,
	RunE: runRecordingsList,
}

var recordingsShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show a recording",
	Args:  cobra.ExactArgs(1),
	RunE:  runRecordingsShow,
}

var recordingsPlayCmd = &cobra.Command{
	Use:   "play <id>",
	Short: "Play a recording",
	Args:  cobra.ExactArgs(1),
	RunE:  runRecordingsPlay,
}

var recordingsDeleteCmd = &cobra.Command{
	Use:     "delete <id>",
	Aliases: []string{"rm"},
	Short:   "Delete a recording",
	Args:    cobra.ExactArgs(1),
	RunE:    runRecordingsDelete,
}

func init() {
	rootCmd.AddCommand(recordingsCmd)
	recordingsCmd.AddCommand(recordingsShowCmd)
	recordingsCmd.AddCommand(recordingsPlayCmd)
	recordingsCmd.AddCommand(recordingsDeleteCmd)

	recordingsCmd.Flags().IntVarP(&recordingsLimit, "limit", "n", 50, "maximum number of recordings")
}

func openStore() (*store.SQLiteStore, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	logger := recorder.NewLogger(cfg, os.Stderr)
	if !verbose && logger.Level() < logging.LevelWarn {
		logger = logger.WithLevel(logging.LevelWarn)
	}
	return recorder.OpenStore(cfg, logger.Named("store"))
}

func runRecordingsList(cmd *cobra.Command, args []string) error {
	recordings, err := openStore()
	if err != nil {
		return err
	}
	defer recordings.Close()

	list, err := recordings.List(context.Background(), recordingsLimit)
	if err != nil {
		return err
	}

	if len(list) == 0 {
		fmt.Println("No recordings saved yet.")
		fmt.Println()
		fmt.Println("Start recording with: meetrec record")
		return nil
	}

	fmt.Printf("%-36s  %-30s  %-8s  %-16s\n", "ID", "TITLE", "LENGTH", "CREATED")
	fmt.Println(strings.Repeat("-", 96))
	for _, rec := range list {
		fmt.Printf("%-36s  %-30s  %-8s  %-16s\n",
			rec.ID,
			truncate(rec.Title, 30),
			formatSeconds(rec.DurationSeconds),
			rec.CreatedAt.Local().Format("2006-01-02 15:04"))
	}
	fmt.Println()
	fmt.Printf("Total: %d recording(s)\n", len(list))

	return nil
}

func runRecordingsShow(cmd *cobra.Command, args []string) error {
	recordings, err := openStore()
	if err != nil {
		return err
	}
	defer recordings.Close()

	rec, err := recordings.Get(context.Background(), args[0])
	if err != nil {
		return err
	}

	fmt.Println(rec.Title)
	fmt.Println(strings.Repeat("=", len([]rune(rec.Title))))
	fmt.Printf("ID:       %s\n", rec.ID)
	fmt.Printf("Created:  %s\n", rec.CreatedAt.Local().Format("2006-01-02 15:04:05"))
	fmt.Printf("Length:   %s\n", formatSeconds(rec.DurationSeconds))
	fmt.Printf("Audio:    %s\n", rec.AudioRef)
	fmt.Println()

	result := &transcribe.Result{
		FullText:       rec.Transcription,
		Topics:         rec.Topics,
		SummaryBullets: rec.Summary,
	}
	fmt.Println(result.PlainText())
	return nil
}

func runRecordingsPlay(cmd *cobra.Command, args []string) error {
	recordings, err := openStore()
	if err != nil {
		return err
	}
	defer recordings.Close()

	rec, err := recordings.Get(context.Background(), args[0])
	if err != nil {
		return err
	}

	player, err := audio.OpenWAV(rec.AudioRef)
	if err != nil {
		return apperr.Wrap(err, apperr.CodeDecodeFailed, "Cannot open recording")
	}
	defer player.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := player.Play(); err != nil {
		return apperr.Wrap(err, apperr.CodePlaybackFailed, "Playback failed")
	}
	fmt.Printf("Playing %s (%s), Ctrl+C to stop\n", rec.Title, formatSeconds(rec.DurationSeconds))

	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			fmt.Println()
			return player.Pause()
		case <-ticker.C:
			status, err := player.Status()
			if err != nil {
				return apperr.Wrap(err, apperr.CodePlaybackFailed, "Playback failed")
			}
			fmt.Printf("\r%s / %s", transcribe.FormatTimestamp(status.Position.Milliseconds()),
				transcribe.FormatTimestamp(status.Duration.Milliseconds()))
			if status.DidJustFinish {
				fmt.Println()
				return nil
			}
		}
	}
}

func runRecordingsDelete(cmd *cobra.Command, args []string) error {
	recordings, err := openStore()
	if err != nil {
		return err
	}
	defer recordings.Close()

	if err := recordings.Delete(context.Background(), args[0]); err != nil {
		return err
	}
	fmt.Printf("Recording %s deleted.\n", args[0])
	return nil
}

func formatSeconds(secs float64) string {
	return transcribe.FormatTimestamp(int64(secs * 1000))
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
