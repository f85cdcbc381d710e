package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/0xlemi/fretune/internal/audio"
	"github.com/0xlemi/fretune/internal/config"
	"github.com/0xlemi/fretune/internal/logging"
	"github.com/0xlemi/fretune/internal/pitch"
	"github.com/0xlemi/fretune/internal/tuner"
	"github.com/0xlemi/fretune/internal/ui"
)

const channels = 1

// newLogger builds the logger for a run. Without --log-file, output goes to
// fallback; a nil fallback discards it.
func newLogger(cfg config.Config, fallback io.Writer, tui bool) (logging.Logger, func() error, error) {
	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, nil, err
	}

	if cfg.LogFile != "" {
		var f *os.File
		if tui {
			f, err = tea.LogToFile(cfg.LogFile, "fretune")
		} else {
			f, err = os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		}
		if err != nil {
			return nil, nil, fmt.Errorf("open log file: %w", err)
		}
		return logging.New(f, level), f.Close, nil
	}

	noClose := func() error { return nil }
	if fallback == nil {
		return logging.NoOpLogger{}, noClose, nil
	}
	return logging.New(fallback, level), noClose, nil
}

func sessionOptions(cfg config.Config, log logging.Logger, tones bool) []tuner.Option {
	opts := []tuner.Option{
		tuner.WithLogger(log),
		tuner.WithToneDuration(cfg.ToneDuration),
	}
	if cfg.UseFFT {
		opts = append(opts, tuner.WithDetector(pitch.NewEstimator(&pitch.FFTCorrelator{})))
	}
	if tones && cfg.ToneEnabled {
		player := audio.NewPortAudioTonePlayer(cfg.SampleRate, func(err error) {
			log.Error(err, "reference tone")
		})
		opts = append(opts, tuner.WithTonePlayer(player))
	}
	return opts
}

func newMicrophone(cfg config.Config) (*audio.PortAudioCapturer, error) {
	capturer, err := audio.NewPortAudioCapturer(cfg.BufferSize, cfg.SampleRate, channels, cfg.LowpassHz)
	if err != nil {
		return nil, err
	}
	capturer.SetGain(cfg.Gain)
	return capturer, nil
}

// newTUIModel builds the interface over session. A target locks it to that
// string before the first frame, so the interface opens listening.
func newTUIModel(session *tuner.Session, interval time.Duration, target int) (ui.Model, error) {
	if target != tuner.None {
		if err := session.SelectTarget(target); err != nil {
			return ui.Model{}, err
		}
	}
	return ui.NewModel(session, interval), nil
}

func runTUI(cfg config.Config, target int) error {
	log, closeLog, err := newLogger(cfg, nil, true)
	if err != nil {
		return err
	}
	defer closeLog()

	capturer, err := newMicrophone(cfg)
	if err != nil {
		return err
	}
	session := tuner.NewSession(capturer, sessionOptions(cfg, log, true)...)
	defer session.Stop()

	model, err := newTUIModel(session, cfg.Interval, target)
	if err != nil {
		return err
	}
	p := tea.NewProgram(model, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("run interface: %w", err)
	}
	return nil
}

func runHeadless(ctx context.Context, w io.Writer, cfg config.Config, target int) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	log, closeLog, err := newLogger(cfg, os.Stderr, false)
	if err != nil {
		return err
	}
	defer closeLog()

	capturer, err := newMicrophone(cfg)
	if err != nil {
		return err
	}
	session := tuner.NewSession(capturer, sessionOptions(cfg, log, true)...)
	if target != tuner.None {
		if err := session.SelectTarget(target); err != nil {
			return err
		}
	}

	driver := tuner.NewDriver(session, cfg.Interval, tuner.WithErrorHandler(func(err error) {
		log.Warn("dropped frame", logging.Fields{"error": err.Error()})
	}))
	return driver.Run(ctx, func(r tuner.FrameResult) {
		if r.Updated {
			fmt.Fprintln(w, formatResult(r))
		}
	})
}

func runAnalyze(ctx context.Context, w io.Writer, cfg config.Config, path string, target, hop int) error {
	if ctx == nil {
		ctx = context.Background()
	}

	log, closeLog, err := newLogger(cfg, nil, false)
	if err != nil {
		return err
	}
	defer closeLog()

	capturer, err := audio.OpenWAV(path, cfg.BufferSize, hop)
	if err != nil {
		return err
	}
	session := tuner.NewSession(capturer, sessionOptions(cfg, log, false)...)
	if target != tuner.None {
		if err := session.SelectTarget(target); err != nil {
			return err
		}
	}

	frames, pitched := 0, 0
	err = tuner.NewDriver(session, 0).Run(ctx, func(r tuner.FrameResult) {
		at := frameTime(frames, hop, capturer.SampleRate())
		frames++
		if r.Updated {
			pitched++
			fmt.Fprintf(w, "%8.3fs  %s\n", at.Seconds(), formatResult(r))
		} else {
			fmt.Fprintf(w, "%8.3fs  level %.2f  no pitch\n", at.Seconds(), r.Volume)
		}
	})
	if err != nil {
		return err
	}

	seconds := float64(capturer.Len()) / float64(capturer.SampleRate())
	fmt.Fprintf(w, "%d frames, %d with pitch, %.3fs of audio\n", frames, pitched, seconds)
	return nil
}

// formatResult renders one reading as a line
func formatResult(r tuner.FrameResult) string {
	note := "-"
	if r.Note != nil {
		note = r.Note.String()
	}

	target := "-"
	if s, ok := r.Target(); ok {
		target = fmt.Sprintf("%d %s", tuner.StringNumber(r.ActiveIndex), s.Label)
	}

	line := fmt.Sprintf("%-6s %-4s %8.2f Hz  string %-5s %+6.1f cents",
		r.Mode, note, r.Frequency, target, r.Cents)
	if v := r.Feedback(); v != tuner.VerdictInactive {
		line += "  " + v.String()
	}
	return line
}
