package cmd

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/msto63/meetrec/pkg/core/version"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("meetrec v%s\n", version.Version)
		if version.GitCommit != "" {
			fmt.Printf("  Git Commit: %s\n", version.GitCommit)
		}
		if version.BuildTime != "" {
			fmt.Printf("  Build Date: %s\n", version.BuildTime)
		}
		fmt.Printf("  Protocol:   %s\n", version.ComponentVersion("client"))
		fmt.Printf("  Schema:     %s\n", version.ComponentVersion("store"))
		fmt.Printf("  Go Version: %s\n", runtime.Version())
		fmt.Printf("  OS/Arch:    %s/%s\n", runtime.GOOS, runtime.GOARCH)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
