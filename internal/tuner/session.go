package tuner

import (
	"errors"
	"fmt"
	"time"

	"github.com/0xlemi/fretune/internal/audio"
	"github.com/0xlemi/fretune/internal/logging"
	"github.com/0xlemi/fretune/internal/pitch"
)

// DefaultToneDuration is how long a reference tone sounds
const DefaultToneDuration = 2 * time.Second

// ErrInvalidString is returned for a selection outside the reference table
var ErrInvalidString = errors.New("string index out of range")

// AcquisitionError reports that the audio input could not be acquired. The
// session stays in ModeFailed until Start succeeds.
type AcquisitionError struct {
	Err error
}

func (e *AcquisitionError) Error() string {
	return fmt.Sprintf("acquire audio input: %v", e.Err)
}

func (e *AcquisitionError) Unwrap() error {
	return e.Err
}

// FrameResult is the display state after a pipeline pass
type FrameResult struct {
	Mode          Mode
	Volume        float64     // meter level, 0..1
	Frequency     float64     // stabilized pitch, valid when HasPitch
	HasPitch      bool
	ActiveIndex   int         // string the gauge is measuring against, or None
	DetectedIndex int         // nearest string to the pitch, or None
	Cents         float64     // smoothed offset, -50..50
	Note          *pitch.Note // absolute note name, nil until the first pitch
	Spread        float64     // jitter of the stabilizer window in cents
	Updated       bool        // this frame produced a new match
}

// Feedback classifies the result for display
func (r FrameResult) Feedback() Verdict {
	return Feedback(r.Cents, r.Mode.Active() && pitch.PassesGate(r.Volume))
}

// Target returns the active string, if any
func (r FrameResult) Target() (GuitarString, bool) {
	if !ValidIndex(r.ActiveIndex) {
		return GuitarString{}, false
	}
	return StandardTuning[r.ActiveIndex], true
}

// Option configures a Session
type Option func(*Session)

// WithTonePlayer sets the reference tone collaborator
func WithTonePlayer(p audio.TonePlayer) Option {
	return func(s *Session) {
		if p != nil {
			s.tones = p
		}
	}
}

// WithToneDuration sets the reference tone length
func WithToneDuration(d time.Duration) Option {
	return func(s *Session) {
		if d > 0 {
			s.toneDuration = d
		}
	}
}

// WithDetector replaces the pitch estimator
func WithDetector(d pitch.Detector) Option {
	return func(s *Session) {
		if d != nil {
			s.detector = d
		}
	}
}

// WithLogger sets the session logger
func WithLogger(l logging.Logger) Option {
	return func(s *Session) {
		if l != nil {
			s.log = l
		}
	}
}

// WithRandom sets the random source of the stabilizer's silent-frame decay
func WithRandom(f func() float64) Option {
	return func(s *Session) {
		s.random = f
	}
}

// Session owns every piece of cross-frame state for one audio source. It is
// driven from a single goroutine: commands and ProcessFrame/Tick must not run
// concurrently.
type Session struct {
	capturer     audio.Capturer
	detector     pitch.Detector
	stabilizer   *pitch.Stabilizer
	smoother     Smoother
	tones        audio.TonePlayer
	toneDuration time.Duration
	random       func() float64
	log          logging.Logger

	state     modeState
	volume    float64
	frequency float64
	hasPitch  bool
	detected  int
	note      *pitch.Note
	err       error
}

// NewSession creates an idle session reading from capturer
func NewSession(capturer audio.Capturer, opts ...Option) *Session {
	s := &Session{
		capturer:     capturer,
		detector:     pitch.NewEstimator(nil),
		tones:        audio.ToneFunc(func(float64, time.Duration) {}),
		toneDuration: DefaultToneDuration,
		log:          logging.NoOpLogger{},
		state:        newModeState(),
		detected:     None,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.stabilizer = pitch.NewStabilizer(pitch.DefaultWindow, pitch.WithRandom(s.random))
	return s
}

// Mode returns the current mode
func (s *Session) Mode() Mode {
	return s.state.mode
}

// LockedIndex returns the Manual target, the Auto-tracked string, or a lock
// held across stop and failed restarts; None otherwise.
func (s *Session) LockedIndex() int {
	return s.state.locked
}

// Err returns the acquisition error that put the session in ModeFailed
func (s *Session) Err() error {
	return s.err
}

// Start acquires the audio input and begins listening. It is a no-op on an
// active session. On failure the session enters ModeFailed and the returned
// error is an *AcquisitionError.
func (s *Session) Start() error {
	if s.state.mode.Active() {
		return nil
	}

	if err := s.capturer.Start(); err != nil {
		s.state.fail()
		s.err = &AcquisitionError{Err: err}
		s.log.Error(err, "audio input unavailable")
		return s.err
	}

	s.err = nil
	s.state.start()
	s.log.Info("listening", logging.Fields{"mode": s.state.mode.String(), "locked": s.state.locked})
	return nil
}

// Stop releases the audio input and clears the display state. A Manual lock
// is kept so the next Start resumes it. Stop is a no-op unless listening.
func (s *Session) Stop() error {
	if !s.state.mode.Active() {
		return nil
	}

	wasMode := s.state.mode
	s.state.stop()
	s.volume = 0
	s.smoother.Reset()
	s.stabilizer.Reset()
	s.detected = None
	s.note = nil
	s.frequency = 0
	s.hasPitch = false

	err := s.capturer.Stop()
	if err != nil {
		s.log.Error(err, "release audio input")
		err = fmt.Errorf("release audio input: %w", err)
	}
	s.log.Info("stopped", logging.Fields{"from": wasMode.String(), "kept_lock": s.state.locked})
	return err
}

// SelectTarget handles a string selection. From Idle or Failed it starts the
// session and locks straight onto i. On an active session selecting the
// locked string unlocks to Auto; any other string is locked, the window and
// accumulator are reset and a reference tone is requested.
func (s *Session) SelectTarget(i int) error {
	if !ValidIndex(i) {
		return fmt.Errorf("%w: %d", ErrInvalidString, i)
	}

	if !s.state.mode.Active() {
		if err := s.Start(); err != nil {
			return err
		}
		s.state.lock(i)
		s.enterLock(i)
		return nil
	}

	switch s.state.selectTarget(i) {
	case transitionLock:
		s.enterLock(i)
	case transitionUnlock:
		s.detected = None
		s.log.Info("unlocked", logging.Fields{"string": StandardTuning[i].Label})
	}
	return nil
}

func (s *Session) enterLock(i int) {
	s.stabilizer.Reset()
	s.smoother.Reset()

	target := StandardTuning[i]
	s.tones.PlayTone(target.Frequency, s.toneDuration)
	s.log.Info("locked", logging.Fields{"string": target.Label, "frequency": target.Frequency})
}

// Tick pulls one buffer from the capturer and processes it. A read error
// drops the frame: the current snapshot is returned with the error.
func (s *Session) Tick() (FrameResult, error) {
	if !s.state.mode.Active() {
		return s.Snapshot(), nil
	}

	buf, err := s.capturer.GetBuffer()
	if err != nil {
		return s.Snapshot(), err
	}
	return s.ProcessFrame(buf), nil
}

// ProcessFrame runs one pipeline pass. When the session is not listening the
// frame is ignored.
func (s *Session) ProcessFrame(buf *audio.AudioBuffer) FrameResult {
	if !s.state.mode.Active() {
		return s.Snapshot()
	}

	var samples []float32
	if buf != nil {
		samples = buf.Samples
	}
	s.volume = pitch.Volume(pitch.RMS(samples))

	if !pitch.PassesGate(s.volume) {
		s.stabilizer.Decay()
		return s.Snapshot()
	}

	raw, err := s.detector.Estimate(buf)
	if err != nil {
		return s.Snapshot()
	}

	stable := s.stabilizer.Push(raw)
	active, detected, offset := s.state.match(stable)
	s.detected = detected
	s.smoother.Update(ClampCents(offset))

	note := pitch.FrequencyToNote(stable)
	s.note = &note
	s.frequency = stable
	s.hasPitch = true

	s.log.Debug("frame", logging.Fields{
		"raw":    raw,
		"stable": stable,
		"active": active,
		"offset": offset,
	})

	result := s.Snapshot()
	result.Updated = true
	return result
}

// Snapshot returns the current display state without processing anything
func (s *Session) Snapshot() FrameResult {
	active := None
	if s.state.mode.Active() {
		active = s.state.locked
	}
	return FrameResult{
		Mode:          s.state.mode,
		Volume:        s.volume,
		Frequency:     s.frequency,
		HasPitch:      s.hasPitch,
		ActiveIndex:   active,
		DetectedIndex: s.detected,
		Cents:         s.smoother.Value(),
		Note:          s.note,
		Spread:        s.stabilizer.Spread(),
	}
}

// WindowLen reports how many raw estimates the stabilizer holds
func (s *Session) WindowLen() int {
	return s.stabilizer.Len()
}
