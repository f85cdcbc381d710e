package tuner

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- Reference table ---

func TestCentsIdentities(t *testing.T) {
	assert.Equal(t, 0.0, Cents(110.00, 110.00))
	assert.Equal(t, 1200.0, Cents(220.00, 110.00))
	assert.Equal(t, -1200.0, Cents(55.00, 110.00))
	assert.InDelta(t, 100, Cents(110*math.Pow(2, 1.0/12), 110), 1e-9)
}

func TestClampCents(t *testing.T) {
	assert.Equal(t, 50.0, ClampCents(500))
	assert.Equal(t, -50.0, ClampCents(-51))
	assert.Equal(t, 12.5, ClampCents(12.5))
}

func TestStandardTuning(t *testing.T) {
	want := []float64{82.41, 110.00, 146.83, 196.00, 246.94, 329.63}
	require.Len(t, StandardTuning, len(want))
	for i, f := range want {
		assert.Equal(t, f, StandardTuning[i].Frequency)
	}
	assert.Equal(t, "E2", StandardTuning[0].Label)
	assert.Equal(t, "E4", StandardTuning[5].Label)
}

func TestStringNumbering(t *testing.T) {
	assert.Equal(t, 6, StringNumber(0))
	assert.Equal(t, 1, StringNumber(5))
	assert.Equal(t, 0, IndexForString(6))
	assert.Equal(t, 5, IndexForString(1))
	assert.Equal(t, None, IndexForString(0))
	assert.Equal(t, None, IndexForString(7))
}

func TestNearest(t *testing.T) {
	for i, s := range StandardTuning {
		idx, cents := Nearest(s.Frequency)
		assert.Equal(t, i, idx, s.Label)
		assert.Equal(t, 0.0, cents, s.Label)
	}

	idx, cents := Nearest(112)
	assert.Equal(t, 1, idx)
	assert.InDelta(t, Cents(112, 110), cents, 1e-12)

	idx, _ = Nearest(20)
	assert.Equal(t, 0, idx, "far below the table still picks the lowest string")
	idx, _ = Nearest(2000)
	assert.Equal(t, 5, idx)
}

// --- Mode machine ---

func TestModeStateStartStop(t *testing.T) {
	m := newModeState()
	assert.Equal(t, ModeIdle, m.mode)
	assert.Equal(t, None, m.locked)

	m.start()
	assert.Equal(t, ModeAuto, m.mode)
	assert.Equal(t, None, m.locked)

	// Auto target is dropped on stop
	m.locked = 3
	m.stop()
	assert.Equal(t, ModeIdle, m.mode)
	assert.Equal(t, None, m.locked)

	// Manual lock survives stop and resumes on start
	m.lock(2)
	m.stop()
	assert.Equal(t, 2, m.locked)
	m.start()
	assert.Equal(t, ModeManual, m.mode)
	assert.Equal(t, 2, m.locked)
}

func TestModeStateSelectTarget(t *testing.T) {
	m := newModeState()
	m.start()

	assert.Equal(t, transitionLock, m.selectTarget(1))
	assert.Equal(t, ModeManual, m.mode)
	assert.Equal(t, 1, m.locked)

	assert.Equal(t, transitionLock, m.selectTarget(4), "switching strings relocks")
	assert.Equal(t, 4, m.locked)

	assert.Equal(t, transitionUnlock, m.selectTarget(4), "same string toggles off")
	assert.Equal(t, ModeAuto, m.mode)
	assert.Equal(t, None, m.locked)
}

func TestModeStateFail(t *testing.T) {
	m := newModeState()
	m.fail()
	assert.Equal(t, ModeFailed, m.mode)
	assert.False(t, m.mode.Active())

	m.start()
	assert.Equal(t, ModeAuto, m.mode, "start clears the failure")
	assert.Equal(t, None, m.locked)
}

func TestModeStateFailKeepsLock(t *testing.T) {
	m := newModeState()
	m.lock(3)
	m.stop()
	m.fail()
	assert.Equal(t, ModeFailed, m.mode)
	assert.Equal(t, 3, m.locked)

	m.fail()
	m.start()
	assert.Equal(t, ModeManual, m.mode, "the lock survives repeated failures")
	assert.Equal(t, 3, m.locked)
}

func TestResolveAutoHysteresis(t *testing.T) {
	// 130 Hz: nearest is D3, but still 289 cents from A2
	detected, minDiff := Nearest(130)
	require.Equal(t, 2, detected)

	active, offset := resolveAuto(1, detected, minDiff, 130)
	assert.Equal(t, 1, active)
	assert.InDelta(t, Cents(130, 110), offset, 1e-12)

	// 135 Hz is 354 cents above A2: follow the nearest string
	detected, minDiff = Nearest(135)
	active, offset = resolveAuto(1, detected, minDiff, 135)
	assert.Equal(t, 2, active)
	assert.Equal(t, minDiff, offset)

	// no previous match
	active, _ = resolveAuto(None, 3, 0, 196)
	assert.Equal(t, 3, active)
}

func TestMatchManualIgnoresNearest(t *testing.T) {
	m := newModeState()
	m.start()
	m.lock(1)

	active, detected, offset := m.match(146.83)
	assert.Equal(t, 1, active)
	assert.Equal(t, 2, detected)
	assert.InDelta(t, Cents(146.83, 110), offset, 1e-12)
}

func TestMatchAutoTracksPrevious(t *testing.T) {
	m := newModeState()
	m.start()

	active, _, _ := m.match(110.5)
	assert.Equal(t, 1, active)
	assert.Equal(t, 1, m.locked, "active string becomes prev")

	active, detected, _ := m.match(130)
	assert.Equal(t, 1, active)
	assert.Equal(t, 2, detected)
}

func TestModeString(t *testing.T) {
	assert.Equal(t, "idle", ModeIdle.String())
	assert.Equal(t, "auto", ModeAuto.String())
	assert.Equal(t, "manual", ModeManual.String())
	assert.Equal(t, "failed", ModeFailed.String())
	assert.Equal(t, "unknown", Mode(42).String())
}

// --- Smoother ---

func TestSmoothingFactorBands(t *testing.T) {
	tests := []struct {
		abs  float64
		want float64
	}{
		{0, 0.02},
		{0.99, 0.02},
		{1, 0.05},
		{4.99, 0.05},
		{5, 0.1},
		{20, 0.1},
		{20.01, 0.3},
		{50, 0.3},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, SmoothingFactor(tt.abs), "abs=%v", tt.abs)
	}
}

func TestSmootherConvergesWithoutOvershoot(t *testing.T) {
	var s Smoother
	prev := s.Value()
	for i := 0; i < 500; i++ {
		v := s.Update(2)
		require.GreaterOrEqual(t, v, prev, "tick %d", i)
		require.LessOrEqual(t, v, 2.0, "tick %d", i)
		prev = v
	}
	assert.InDelta(t, 2, prev, 1e-6)
}

func TestSmootherReset(t *testing.T) {
	var s Smoother
	s.Update(40)
	assert.InDelta(t, 12, s.Value(), 1e-12)
	s.Reset()
	assert.Equal(t, 0.0, s.Value())
}

// --- Feedback ---

func TestFeedback(t *testing.T) {
	tests := []struct {
		cents float64
		want  Verdict
	}{
		{0, VerdictPerfect},
		{3, VerdictPerfect},
		{-3, VerdictPerfect},
		{-3.1, VerdictTuneUp},
		{-10, VerdictTuneUp},
		{-10.1, VerdictTooLow},
		{-44.9, VerdictTooLow},
		{-45, VerdictExtremeLow},
		{3.1, VerdictTuneDown},
		{10, VerdictTuneDown},
		{10.1, VerdictTooHigh},
		{45, VerdictExtremeHigh},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Feedback(tt.cents, true), "cents=%v", tt.cents)
	}
	assert.Equal(t, VerdictInactive, Feedback(0, false))
	assert.Equal(t, "", VerdictInactive.String())
	assert.Equal(t, "Perfect", VerdictPerfect.String())
}
