package tuner

import (
	"context"
	"errors"
	"io"
	"time"
)

// Driver is the tick source for a Session. Each tick runs exactly one
// pipeline pass on the goroutine that called Run, so passes never overlap.
type Driver struct {
	session  *Session
	interval time.Duration
	onError  func(error)
}

// DriverOption configures a Driver
type DriverOption func(*Driver)

// WithErrorHandler receives per-tick read errors. The frame is dropped and
// the next tick proceeds.
func WithErrorHandler(f func(error)) DriverOption {
	return func(d *Driver) {
		d.onError = f
	}
}

// NewDriver creates a driver ticking every interval. A non-positive interval
// runs ticks back to back, which suits offline sources.
func NewDriver(session *Session, interval time.Duration, opts ...DriverOption) *Driver {
	d := &Driver{session: session, interval: interval}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Run starts the session if needed and feeds every tick's result to sink
// until ctx is done, the source reports io.EOF, or the session leaves the
// listening state. The session is stopped before Run returns.
func (d *Driver) Run(ctx context.Context, sink func(FrameResult)) (err error) {
	if err := d.session.Start(); err != nil {
		return err
	}
	defer func() {
		err = errors.Join(err, d.session.Stop())
	}()

	var tick <-chan time.Time
	if d.interval > 0 {
		ticker := time.NewTicker(d.interval)
		defer ticker.Stop()
		tick = ticker.C
	}

	for {
		if tick != nil {
			select {
			case <-ctx.Done():
				return nil
			case <-tick:
			}
		}
		if ctx.Err() != nil {
			return nil
		}

		if !d.session.Mode().Active() {
			return nil
		}

		result, err := d.session.Tick()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			if d.onError != nil {
				d.onError(err)
			}
			continue
		}
		if sink != nil {
			sink(result)
		}
	}
}
