// cmd/record.go
package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/subsonant/audioengine"
	"github.com/subsonant/audioengine/internal/config"
)

const drainPollInterval = 200 * time.Millisecond
const maxDrainBytes = 1 << 20

var recordSeconds float64

var recordCmd = &cobra.Command{
	Use:   "record <output-file>",
	Short: "Capture from the default input device and write wire-encoded chunks to a file",
	Args:  cobra.ExactArgs(1),
	RunE:  runRecord,
}

func init() {
	recordCmd.Flags().Float64Var(&recordSeconds, "seconds", 0, "stop after this many seconds (0 = run until Ctrl+C)")
}

func runRecord(cmd *cobra.Command, args []string) error {
	settings, err := config.Get()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	format, err := audioengine.ParseFormat(settings.Format)
	if err != nil {
		return fmt.Errorf("config format: %w", err)
	}

	out, err := os.Create(args[0])
	if err != nil {
		return fmt.Errorf("create %s: %w", args[0], err)
	}
	defer out.Close()

	eng := audioengine.New()
	defer eng.Close()

	if err := eng.StartRecording(uint32(settings.SampleRate), uint8(settings.Channels), format); err != nil {
		return fmt.Errorf("start recording: %w", err)
	}
	defer eng.StopRecording()

	eng.SetThresholdPercent(settings.SoundThresholdPct)
	eng.SetGainPercent(settings.SoundGainPct)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if recordSeconds > 0 {
		var timerCancel context.CancelFunc
		ctx, timerCancel = context.WithTimeout(ctx, time.Duration(recordSeconds*float64(time.Second)))
		defer timerCancel()
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	fmt.Fprintln(cmd.OutOrStdout(), "recording... Press Ctrl+C to stop.")
	ticker := time.NewTicker(drainPollInterval)
	defer ticker.Stop()

loop:
	for {
		select {
		case <-ctx.Done():
			break loop
		case <-ticker.C:
			if err := drainTo(eng, out); err != nil {
				return err
			}
		}
	}

	if err := drainTo(eng, out); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", args[0])
	return nil
}

func drainTo(eng *audioengine.Engine, out *os.File) error {
	for eng.SizeUnread() > 0 {
		chunk := eng.GetUnread(maxDrainBytes)
		if len(chunk) == 0 {
			break
		}
		if _, err := out.Write(chunk); err != nil {
			return fmt.Errorf("write chunk: %w", err)
		}
	}
	return nil
}
