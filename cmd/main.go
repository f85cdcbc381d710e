package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/0xlemi/fretune/internal/config"
	"github.com/0xlemi/fretune/internal/tuner"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "fretune:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cfg := config.Load()
	var noTone bool

	root := &cobra.Command{
		Use:           "fretune",
		Short:         "Real-time guitar tuner for standard tuning",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			if noTone {
				cfg.ToneEnabled = false
			}
			return cfg.Validate()
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runTUI(cfg, tuner.None)
		},
	}

	flags := root.PersistentFlags()
	flags.IntVar(&cfg.SampleRate, "sample-rate", cfg.SampleRate, "capture sample rate in Hz")
	flags.IntVar(&cfg.BufferSize, "buffer-size", cfg.BufferSize, "samples per analysis frame")
	flags.DurationVar(&cfg.Interval, "interval", cfg.Interval, "time between pipeline passes")
	flags.Float64Var(&cfg.LowpassHz, "lowpass", cfg.LowpassHz, "capture low-pass cutoff in Hz, 0 disables")
	flags.Float64Var(&cfg.Gain, "gain", cfg.Gain, "input gain applied before the low-pass")
	flags.BoolVar(&cfg.UseFFT, "fft", cfg.UseFFT, "compute autocorrelation through the FFT")
	flags.StringVar(&cfg.LogFile, "log-file", cfg.LogFile, "append logs to this file")
	flags.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "debug, info, warn or error")
	flags.BoolVar(&noTone, "no-tone", false, "do not play a reference tone when locking a string")

	root.AddCommand(newListenCmd(&cfg), newAnalyzeCmd(&cfg))
	return root
}

func newListenCmd(cfg *config.Config) *cobra.Command {
	var headless bool
	var stringNumber int

	cmd := &cobra.Command{
		Use:   "listen",
		Short: "Tune from the default microphone",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			target, err := targetIndex(stringNumber)
			if err != nil {
				return err
			}
			if !headless {
				return runTUI(*cfg, target)
			}
			return runHeadless(cmd.Context(), cmd.OutOrStdout(), *cfg, target)
		},
	}
	cmd.Flags().BoolVar(&headless, "headless", false, "print readings instead of drawing the interface")
	cmd.Flags().IntVar(&stringNumber, "string", 0, "lock onto string 1-6 (6 is low E), 0 for auto")
	return cmd
}

func newAnalyzeCmd(cfg *config.Config) *cobra.Command {
	var stringNumber int
	var hop int

	cmd := &cobra.Command{
		Use:   "analyze FILE.wav",
		Short: "Run the tuner over a WAV recording",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			target, err := targetIndex(stringNumber)
			if err != nil {
				return err
			}
			if hop <= 0 {
				hop = cfg.BufferSize / 4
			}
			return runAnalyze(cmd.Context(), cmd.OutOrStdout(), *cfg, args[0], target, hop)
		},
	}
	cmd.Flags().IntVar(&stringNumber, "string", 0, "lock onto string 1-6 (6 is low E), 0 for auto")
	cmd.Flags().IntVar(&hop, "hop", 0, "samples between frames (default buffer-size/4)")
	return cmd
}

// targetIndex maps a --string value to a table index; 0 means Auto
func targetIndex(stringNumber int) (int, error) {
	if stringNumber == 0 {
		return tuner.None, nil
	}
	index := tuner.IndexForString(stringNumber)
	if index == tuner.None {
		return tuner.None, fmt.Errorf("--string must be between 1 and %d, got %d", len(tuner.StandardTuning), stringNumber)
	}
	return index, nil
}

// frameTime is the offset of frame n from the start of a recording
func frameTime(n, hop, sampleRate int) time.Duration {
	if sampleRate <= 0 {
		return 0
	}
	return time.Duration(float64(n*hop) / float64(sampleRate) * float64(time.Second))
}
