// cmd/root.go
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/subsonant/audioengine/internal/config"
)

var rootCmd = &cobra.Command{
	Use:   "audioengine",
	Short: "Host CLI for the in-process audio engine",
	Long:  `A command-line harness that exercises the audio engine's playback and recording directions end-to-end.`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "execution error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().IntP("device", "d", -1, "audio device index setting (no command reads it; the default devices are always used)")
	rootCmd.PersistentFlags().BoolP("debug", "D", false, "debug setting (no command reads it)")

	cobra.CheckErr(viper.BindPFlag("device_index", rootCmd.PersistentFlags().Lookup("device")))
	cobra.CheckErr(viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug")))

	rootCmd.AddCommand(devicesCmd, recordCmd, playCmd)
}

func initConfig() {
	if err := config.Init(); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}
}
