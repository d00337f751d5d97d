package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/msto63/meetrec/internal/recorder"
	"github.com/msto63/meetrec/pkg/core/apperr"
)

var doctorJSON bool

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check microphone, transcription service and storage",
	Long: `Runs the environment checks the recorder depends on: an input device,
a reachable transcription service, writable storage directories and
speech analysis. Exits with an error when a required check fails.`,
	RunE: runDoctor,
}

func init() {
	rootCmd.AddCommand(doctorCmd)

	doctorCmd.Flags().BoolVar(&doctorJSON, "json", false, "print the report as JSON")
}

func runDoctor(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	report := recorder.Diagnostics(cfg, recorder.DiagnosticsOptions{}).Check(cmd.Context())

	if doctorJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(report); err != nil {
			return err
		}
	} else {
		fmt.Printf("%-20s %-10s %s\n", "CHECK", "STATUS", "MESSAGE")
		fmt.Println(strings.Repeat("-", 72))
		for _, c := range report.Checks {
			fmt.Printf("%-20s %-10s %s\n", c.Name, c.Status, truncate(c.Message, 40))
		}
		fmt.Println()
		fmt.Printf("Overall: %s\n", report.Status)
	}

	if !report.Healthy() {
		return apperr.New(apperr.CodeConfigError, "environment check failed")
	}
	return nil
}
