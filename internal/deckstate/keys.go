package deckstate

// keyLabels maps the protocol's key index to dual Camelot/Open Key notation.
// Even indices are major keys, odd indices their relative minors.
var keyLabels = [...]string{
	"8B/1d",   // C
	"8A/1m",   // Am
	"9B/2d",   // G
	"9A/2m",   // Em
	"10B/3d",  // D
	"10A/3m",  // Bm
	"11B/4d",  // A
	"11A/4m",  // F#m
	"12B/5d",  // E
	"12A/5m",  // C#m
	"1B/6d",   // B
	"1A/6m",   // G#m
	"2B/7d",   // F#
	"2A/7m",   // D#m
	"3B/8d",   // Db
	"3A/8m",   // Bbm
	"4B/9d",   // Ab
	"4A/9m",   // Fm
	"5B/10d",  // Eb
	"5A/10m",  // Cm
	"6B/11d",  // Bb
	"6A/11m",  // Gm
	"7B/12d",  // F
	"7A/12m",  // Dm
}

// KeyCount is the number of distinct key indices the protocol reports.
const KeyCount = len(keyLabels)

// KeyLabel returns the notation label for a key index.
// Indices outside 0..23 return an empty string.
func KeyLabel(index int) string {
	if index < 0 || index >= KeyCount {
		return ""
	}
	return keyLabels[index]
}
