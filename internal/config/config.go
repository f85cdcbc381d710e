package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds runtime configuration, loaded from environment variables and
// overridden by command-line flags.
type Config struct {
	// Capture
	SampleRate int     // Hz
	BufferSize int     // samples per analysis frame
	LowpassHz  float64 // capture low-pass cutoff, 0 disables
	Gain       float64 // input gain applied before the low-pass

	// Pipeline cadence
	Interval time.Duration // time between ticks

	// Estimation
	UseFFT bool // FFT-backed autocorrelation instead of direct sums

	// Reference tone
	ToneDuration time.Duration
	ToneEnabled  bool

	// Logging
	LogFile  string
	LogLevel string
}

// Load reads configuration from environment variables with sane defaults.
func Load() Config {
	return Config{
		SampleRate: envInt("FRETUNE_SAMPLE_RATE", 48000),
		BufferSize: envInt("FRETUNE_BUFFER_SIZE", 8192),
		LowpassHz:  envFloat("FRETUNE_LOWPASS_HZ", 800),
		Gain:       envFloat("FRETUNE_GAIN", 1),

		Interval: time.Duration(envInt("FRETUNE_INTERVAL_MS", 33)) * time.Millisecond,

		UseFFT: envBool("FRETUNE_FFT", false),

		ToneDuration: time.Duration(envFloat("FRETUNE_TONE_SECONDS", 2) * float64(time.Second)),
		ToneEnabled:  envBool("FRETUNE_TONE", true),

		LogFile:  envStr("FRETUNE_LOG_FILE", ""),
		LogLevel: envStr("FRETUNE_LOG_LEVEL", "info"),
	}
}

// Validate rejects values the pipeline cannot run with.
func (c Config) Validate() error {
	var errs []error
	if c.SampleRate <= 0 {
		errs = append(errs, fmt.Errorf("sample rate must be positive, got %d", c.SampleRate))
	}
	if c.BufferSize <= 0 {
		errs = append(errs, fmt.Errorf("buffer size must be positive, got %d", c.BufferSize))
	}
	if c.Interval <= 0 {
		errs = append(errs, fmt.Errorf("interval must be positive, got %s", c.Interval))
	}
	if c.LowpassHz < 0 || (c.SampleRate > 0 && c.LowpassHz >= float64(c.SampleRate)/2) {
		errs = append(errs, fmt.Errorf("lowpass cutoff %.1f Hz outside (0, nyquist)", c.LowpassHz))
	}
	if c.Gain <= 0 {
		errs = append(errs, fmt.Errorf("gain must be positive, got %.2f", c.Gain))
	}
	if c.ToneDuration < 0 {
		errs = append(errs, fmt.Errorf("tone duration must not be negative, got %s", c.ToneDuration))
	}
	return errors.Join(errs...)
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}
