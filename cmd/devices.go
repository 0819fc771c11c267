// cmd/devices.go
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/subsonant/audioengine"
)

var devicesCmd = &cobra.Command{
	Use:   "devices",
	Short: "List available playback and capture devices",
	RunE:  runDevices,
}

func runDevices(cmd *cobra.Command, _ []string) error {
	eng := audioengine.New()
	defer eng.Close()

	playbackDevices, err := eng.ListPlaybackDevices()
	if err != nil {
		return fmt.Errorf("list playback devices: %w", err)
	}
	captureDevices, err := eng.ListCaptureDevices()
	if err != nil {
		return fmt.Errorf("list capture devices: %w", err)
	}

	fmt.Fprintln(cmd.OutOrStdout(), "Playback devices:")
	for _, d := range playbackDevices {
		fmt.Fprintf(cmd.OutOrStdout(), "  [%d] %s\n", d.Index, d.Name)
	}
	fmt.Fprintln(cmd.OutOrStdout(), "Capture devices:")
	for _, d := range captureDevices {
		fmt.Fprintf(cmd.OutOrStdout(), "  [%d] %s\n", d.Index, d.Name)
	}
	return nil
}
