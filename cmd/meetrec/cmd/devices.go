package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/msto63/meetrec/internal/recorder/audio"
)

var devicesInputOnly bool

var devicesCmd = &cobra.Command{
	Use:   "devices",
	Short: "List audio devices",
	Long: `Lists the audio devices PortAudio can see. Use the name of an input
device as audio.input_device in the configuration.`,
	RunE: runDevices,
}

func init() {
	rootCmd.AddCommand(devicesCmd)

	devicesCmd.Flags().BoolVar(&devicesInputOnly, "input", false, "only list input devices")
}

func runDevices(cmd *cobra.Command, args []string) error {
	devices, err := audio.ListDevices()
	if err != nil {
		return err
	}

	fmt.Printf("%-40s %-5s %-5s %-8s %s\n", "DEVICE", "IN", "OUT", "RATE", "DEFAULT")
	fmt.Println(strings.Repeat("-", 72))

	shown := 0
	for _, d := range devices {
		if devicesInputOnly && d.MaxInputChannels == 0 {
			continue
		}
		var defaults []string
		if d.IsDefaultInput {
			defaults = append(defaults, "input")
		}
		if d.IsDefaultOutput {
			defaults = append(defaults, "output")
		}
		fmt.Printf("%-40s %-5d %-5d %-8.0f %s\n",
			truncate(d.Name, 40), d.MaxInputChannels, d.MaxOutputChannels, d.DefaultSampleRate, strings.Join(defaults, ","))
		shown++
	}

	fmt.Println()
	fmt.Printf("Total: %d device(s)\n", shown)
	return nil
}
