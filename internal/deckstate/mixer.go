package deckstate

// mixerKeys maps the keys under /Mixer/ to their fader.
var mixerKeys = map[string]func(m *MixerState) *float64{
	"CH1faderPosition":   func(m *MixerState) *float64 { return &m.Fader1 },
	"CH2faderPosition":   func(m *MixerState) *float64 { return &m.Fader2 },
	"CH3faderPosition":   func(m *MixerState) *float64 { return &m.Fader3 },
	"CH4faderPosition":   func(m *MixerState) *float64 { return &m.Fader4 },
	"CrossfaderPosition": func(m *MixerState) *float64 { return &m.Crossfader },
}

// apply sets one fader from a loosely typed value and reports whether the
// key was recognised.
func (m *MixerState) apply(key string, v any) bool {
	field, ok := mixerKeys[key]
	if !ok {
		return false
	}
	*field(m) = coerceFloat(v)
	return true
}
