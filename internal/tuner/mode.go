package tuner

import "math"

// HysteresisCents is how far a pitch may drift from the string Auto mode is
// tracking before it switches to the nearest one.
const HysteresisCents = 300.0

// Mode is the session's tuning mode
type Mode int

const (
	ModeIdle   Mode = iota // not listening
	ModeAuto               // target follows the nearest string
	ModeManual             // target locked by the user
	ModeFailed             // input could not be acquired
)

func (m Mode) String() string {
	switch m {
	case ModeIdle:
		return "idle"
	case ModeAuto:
		return "auto"
	case ModeManual:
		return "manual"
	case ModeFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Active reports whether the session is listening
func (m Mode) Active() bool {
	return m == ModeAuto || m == ModeManual
}

type transition int

const (
	transitionNone   transition = iota
	transitionLock              // entered Manual on a new string
	transitionUnlock            // left Manual for Auto
)

// modeState is the Idle | Auto{prev} | Manual{locked} machine. locked holds
// the Manual target, or in Auto the previously active string. In Idle and
// Failed it is only set when a Manual lock survived stop.
type modeState struct {
	mode   Mode
	locked int
}

func newModeState() modeState {
	return modeState{mode: ModeIdle, locked: None}
}

// start enters Auto, or resumes a Manual lock kept across stop and any
// failed starts that followed it.
func (m *modeState) start() {
	if m.mode.Active() {
		return
	}
	if m.locked != None {
		m.mode = ModeManual
		return
	}
	m.mode = ModeAuto
	m.locked = None
}

// stop goes Idle. Only a Manual lock is carried over.
func (m *modeState) stop() {
	if m.mode != ModeManual {
		m.locked = None
	}
	m.mode = ModeIdle
}

// fail records an acquisition failure. A kept lock stays for the retry.
func (m *modeState) fail() {
	m.mode = ModeFailed
}

// lock enters Manual(i) unconditionally
func (m *modeState) lock(i int) {
	m.mode = ModeManual
	m.locked = i
}

// selectTarget applies a string selection on an active session. Selecting
// the locked string unlocks to Auto; any other selection locks onto it.
func (m *modeState) selectTarget(i int) transition {
	if m.mode == ModeManual && m.locked == i {
		m.mode = ModeAuto
		m.locked = None
		return transitionUnlock
	}
	m.lock(i)
	return transitionLock
}

// match resolves the active string for a stabilized pitch f and returns the
// raw (unclamped) offset to it together with the nearest string.
func (m *modeState) match(f float64) (active, detected int, offset float64) {
	detected, minDiff := Nearest(f)

	switch m.mode {
	case ModeManual:
		return m.locked, detected, Cents(f, StandardTuning[m.locked].Frequency)
	case ModeAuto:
		active, offset = resolveAuto(m.locked, detected, minDiff, f)
		m.locked = active
		return active, detected, offset
	default:
		return None, detected, 0
	}
}

// resolveAuto keeps prev while f stays within HysteresisCents of it,
// otherwise follows the nearest string.
func resolveAuto(prev, detected int, minDiff, f float64) (int, float64) {
	if prev != None && prev != detected {
		toPrev := Cents(f, StandardTuning[prev].Frequency)
		if math.Abs(toPrev) < HysteresisCents {
			return prev, toPrev
		}
	}
	return detected, minDiff
}
