package ui

import (
	"errors"
	"math"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/0xlemi/fretune/internal/audio"
	"github.com/0xlemi/fretune/internal/pitch"
	"github.com/0xlemi/fretune/internal/tuner"
)

func sineFrame(freq float64) *audio.AudioBuffer {
	samples := make([]float32, audio.DefaultBufferSize)
	for i := range samples {
		samples[i] = float32(0.5 * math.Sin(2*math.Pi*freq*float64(i)/audio.DefaultSampleRate))
	}
	return &audio.AudioBuffer{Samples: samples, SampleRate: audio.DefaultSampleRate}
}

func newTestModel(t *testing.T, frames ...*audio.AudioBuffer) (Model, *audio.SliceCapturer) {
	t.Helper()
	capturer := audio.NewSliceCapturer(frames, true)
	session := tuner.NewSession(capturer)
	return NewModel(session, 10*time.Millisecond), capturer
}

func press(t *testing.T, m Model, key tea.KeyMsg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(key)
	model, ok := next.(Model)
	require.True(t, ok)
	return model, cmd
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

var space = tea.KeyMsg{Type: tea.KeySpace}

func TestInitIdleSchedulesNothing(t *testing.T) {
	m, _ := newTestModel(t)
	assert.Nil(t, m.Init())
	assert.Contains(t, m.View(), "Press space to start")
}

func TestSpaceTogglesListening(t *testing.T) {
	m, capturer := newTestModel(t, sineFrame(110))

	m, cmd := press(t, m, space)
	require.NotNil(t, cmd, "starting schedules a tick")
	assert.Equal(t, tuner.ModeAuto, m.session.Mode())
	assert.True(t, capturer.IsCapturing())

	next, cmd := m.Update(tickMsg{gen: m.gen})
	m = next.(Model)
	require.NotNil(t, cmd, "an active session keeps ticking")
	assert.True(t, m.result.Updated)
	assert.Equal(t, 1, m.result.ActiveIndex)
	assert.Contains(t, m.View(), "A2")

	m, cmd = press(t, m, space)
	assert.Nil(t, cmd)
	assert.Equal(t, tuner.ModeIdle, m.session.Mode())
	assert.False(t, capturer.IsCapturing())
}

func TestStaleTickIsDropped(t *testing.T) {
	m, _ := newTestModel(t, sineFrame(110))

	m, _ = press(t, m, space)
	stale := tickMsg{gen: m.gen}
	m, _ = press(t, m, space)
	m, _ = press(t, m, space)
	require.Equal(t, tuner.ModeAuto, m.session.Mode())

	next, cmd := m.Update(stale)
	assert.Nil(t, cmd, "a tick from an earlier listening period does not reschedule")
	assert.False(t, next.(Model).result.Updated)
}

func TestTickWhileIdleStopsChain(t *testing.T) {
	m, _ := newTestModel(t)
	next, cmd := m.Update(tickMsg{gen: m.gen})
	assert.Nil(t, cmd)
	assert.Equal(t, tuner.ModeIdle, next.(Model).session.Mode())
}

func TestNumberKeysLockStrings(t *testing.T) {
	m, _ := newTestModel(t, sineFrame(82.41))

	m, cmd := press(t, m, runes("6"))
	require.NotNil(t, cmd, "locking from idle starts listening")
	assert.Equal(t, tuner.ModeManual, m.session.Mode())
	assert.Equal(t, 0, m.session.LockedIndex())
	assert.Contains(t, m.View(), "locked to string 6")

	m, cmd = press(t, m, runes("1"))
	assert.Nil(t, cmd, "relocking keeps the running tick chain")
	assert.Equal(t, 5, m.session.LockedIndex())

	m, _ = press(t, m, runes("a"))
	assert.Equal(t, tuner.ModeAuto, m.session.Mode())
	assert.Equal(t, tuner.None, m.session.LockedIndex())

	m, _ = press(t, m, runes("a"))
	assert.Equal(t, tuner.ModeAuto, m.session.Mode(), "unlock in auto is a no-op")
}

func TestQuitStopsSession(t *testing.T) {
	m, capturer := newTestModel(t)
	m, _ = press(t, m, space)
	require.True(t, capturer.IsCapturing())

	m, cmd := press(t, m, tea.KeyMsg{Type: tea.KeyCtrlC})
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
	assert.Equal(t, tuner.ModeIdle, m.session.Mode())
	assert.False(t, capturer.IsCapturing())
}

func TestAcquisitionFailureIsShown(t *testing.T) {
	m, capturer := newTestModel(t)
	capturer.StartErr = errors.New("device busy")

	m, cmd := press(t, m, space)
	assert.Nil(t, cmd)
	assert.Equal(t, tuner.ModeFailed, m.session.Mode())
	view := m.View()
	assert.Contains(t, view, "Microphone unavailable")
	assert.Contains(t, view, "device busy")

	capturer.StartErr = nil
	m, cmd = press(t, m, space)
	assert.NotNil(t, cmd, "space retries the input")
	assert.Equal(t, tuner.ModeAuto, m.session.Mode())
	assert.NotContains(t, m.View(), "device busy")
}

func TestGaugeNeedle(t *testing.T) {
	assert.Equal(t, 0, gaugeNeedle(-50, gaugeWidth))
	assert.Equal(t, gaugeWidth/2, gaugeNeedle(0, gaugeWidth))
	assert.Equal(t, gaugeWidth-1, gaugeNeedle(50, gaugeWidth))
	assert.Equal(t, gaugeWidth-1, gaugeNeedle(400, gaugeWidth), "out of range clamps")
	assert.Equal(t, 30, gaugeNeedle(25, gaugeWidth))
}

func TestRenderGauge(t *testing.T) {
	g := renderGauge(0, tuner.VerdictPerfect)
	assert.True(t, strings.HasPrefix(g, "-50 "))
	assert.True(t, strings.HasSuffix(g, " +50"))
	assert.Equal(t, 1, strings.Count(g, "┃"))
	assert.Equal(t, 0, strings.Count(g, "┊"), "needle covers the center mark")

	g = renderGauge(-20, tuner.VerdictTooLow)
	assert.Equal(t, 1, strings.Count(g, "┊"))
}

func TestRenderMeter(t *testing.T) {
	assert.Equal(t, strings.Repeat("░", meterWidth), renderMeter(0))
	assert.Equal(t, strings.Repeat("█", meterWidth), renderMeter(1))
	assert.Equal(t, strings.Repeat("█", 10)+strings.Repeat("░", 10), renderMeter(0.5))
}

func TestRenderNote(t *testing.T) {
	natural := renderNote(pitch.FrequencyToNote(82.41))
	assert.Contains(t, natural, "E2")

	sharp := renderNote(pitch.FrequencyToNote(466.17))
	assert.Contains(t, sharp, "A")
	assert.Contains(t, sharp, "#4")
}

func TestNextNatural(t *testing.T) {
	assert.Equal(t, "D", nextNatural("C"))
	assert.Equal(t, "C", nextNatural("B"))
	assert.Equal(t, "B", nextNatural("A"))
	assert.Equal(t, "C", nextNatural("?"))
}
