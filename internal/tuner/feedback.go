package tuner

// Verdict is the coarse tuning instruction shown under the gauge
type Verdict int

const (
	VerdictInactive Verdict = iota
	VerdictPerfect
	VerdictTuneUp
	VerdictTuneDown
	VerdictTooLow
	VerdictTooHigh
	VerdictExtremeLow
	VerdictExtremeHigh
)

// PerfectCents is the band treated as in tune
const PerfectCents = 3.0

func (v Verdict) String() string {
	switch v {
	case VerdictPerfect:
		return "Perfect"
	case VerdictTuneUp:
		return "Tune up a little"
	case VerdictTuneDown:
		return "Tune down a little"
	case VerdictTooLow:
		return "Too low"
	case VerdictTooHigh:
		return "Too high"
	case VerdictExtremeLow:
		return "Far too low, tighten the string"
	case VerdictExtremeHigh:
		return "Far too high, loosen the string"
	default:
		return ""
	}
}

// Feedback classifies a smoothed offset. active is false while not listening
// or when the frame is below the volume gate.
func Feedback(cents float64, active bool) Verdict {
	switch {
	case !active:
		return VerdictInactive
	case cents >= -PerfectCents && cents <= PerfectCents:
		return VerdictPerfect
	case cents <= -45:
		return VerdictExtremeLow
	case cents < -10:
		return VerdictTooLow
	case cents < -PerfectCents:
		return VerdictTuneUp
	case cents >= 45:
		return VerdictExtremeHigh
	case cents > 10:
		return VerdictTooHigh
	default:
		return VerdictTuneDown
	}
}
