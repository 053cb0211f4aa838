package deckstate

// SamplesToSeconds converts a sample count to seconds.
//
// The second return value is false when the sample rate is not yet known
// (zero or negative); callers keep their previously derived value in that case.
func SamplesToSeconds(samples float64, sampleRate int) (float64, bool) {
	if sampleRate <= 0 {
		return 0, false
	}
	return samples / float64(sampleRate), true
}

// setSampleDomain stores a raw sample value and refreshes its seconds
// counterpart when the deck's sample rate is known.
func (d *DeckState) setSampleDomain(raw *float64, seconds *float64, value float64) {
	*raw = value
	if s, ok := SamplesToSeconds(value, d.SampleRate); ok {
		*seconds = s
	}
}

// backfillSampleDomain recomputes every derived seconds field whose raw value
// is already known. Called whenever the sample rate changes.
func (d *DeckState) backfillSampleDomain() {
	pairs := []struct {
		raw     float64
		seconds *float64
	}{
		{d.TrackLengthRaw, &d.TrackLength},
		{d.CuePositionRaw, &d.CuePosition},
		{d.LoopInRaw, &d.LoopIn},
		{d.LoopOutRaw, &d.LoopOut},
	}

	for _, p := range pairs {
		if p.raw == 0 {
			continue
		}
		if s, ok := SamplesToSeconds(p.raw, d.SampleRate); ok {
			*p.seconds = s
		}
	}
}
