// cmd/play.go
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/subsonant/audioengine"
	"github.com/subsonant/audioengine/internal/config"
)

var playCmd = &cobra.Command{
	Use:   "play <file>",
	Short: "Submit an encoded audio file for playback and block until it finishes",
	Args:  cobra.ExactArgs(1),
	RunE:  runPlay,
}

func runPlay(cmd *cobra.Command, args []string) error {
	settings, err := config.Get()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("read %s: %w", args[0], err)
	}

	eng := audioengine.New()
	defer eng.Close()

	if !eng.InitPlayback() {
		return fmt.Errorf("init playback")
	}
	defer eng.UninitPlayback()

	eng.SetVolumePercent(settings.VolumePct)

	handle := eng.Submit(data)
	if !handle.IsValid() {
		return fmt.Errorf("submit %s: rejected (bad format or init failure)", args[0])
	}

	fmt.Fprintf(cmd.OutOrStdout(), "playing %s...\n", args[0])
	if handle.Wait() {
		fmt.Fprintln(cmd.OutOrStdout(), "done")
	} else {
		fmt.Fprintln(cmd.OutOrStdout(), "cancelled or failed")
	}
	return nil
}
