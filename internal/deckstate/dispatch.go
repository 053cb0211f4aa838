package deckstate

import (
	"regexp"
	"strconv"
	"strings"
)

// Device paths matched exactly.
const (
	PathSDCardConnected = "/Client/Librarian/DevicesController/HasSDCardConnected"
	PathUSBConnected    = "/Client/Librarian/DevicesController/HasUsbDeviceConnected"
	PathActiveDeck      = "/GUI/Decks/Deck/ActiveDeck"
)

const (
	// trackPrefix is the sub-namespace the engine nests most deck fields under.
	trackPrefix = "Track/"

	// trackCurrentBPM is the original track tempo, distinct from the live
	// /Engine/DeckN/CurrentBPM.
	trackCurrentBPM = "Track/CurrentBPM"

	// defaultDeckCount is used when the device reports an unusable deck count.
	defaultDeckCount = 2

	// defaultActiveDeck is used when the active deck indicator cannot be parsed.
	defaultActiveDeck = 1
)

var (
	engineDeckPath = regexp.MustCompile(`^(?:.*/)?Engine/Deck(\d+)/(.+)$`)
	clientDeckPath = regexp.MustCompile(`^(?:.*/)?Client/Deck(\d+)/(.+)$`)
	mixerPath      = regexp.MustCompile(`^(?:.*/)?Mixer/(.+)$`)
	trailingDigits = regexp.MustCompile(`(\d+)\s*$`)
)

// PathKind classifies a protocol path.
type PathKind int

// Path categories recognised by the dispatcher.
const (
	PathIgnored PathKind = iota
	PathEngineDeck
	PathClientDeck
	PathMixer
	PathDeckCount
	PathDeviceMedia
	PathGUI
)

// Route is the result of classifying a path.
type Route struct {
	Kind  PathKind
	Deck  int       // 1-based deck number for deck routes
	Field DeckField // deck field for deck routes
	Key   string    // mixer key, or the exact device path
}

// Classify determines where a path would be routed without mutating state.
func Classify(path string) Route {
	if m := engineDeckPath.FindStringSubmatch(path); m != nil {
		return Route{Kind: PathEngineDeck, Deck: atoi(m[1]), Field: EngineField(normaliseEngineField(m[2])), Key: m[2]}
	}
	if m := clientDeckPath.FindStringSubmatch(path); m != nil {
		return Route{Kind: PathClientDeck, Deck: atoi(m[1]), Field: ClientField(m[2]), Key: m[2]}
	}
	if m := mixerPath.FindStringSubmatch(path); m != nil {
		return Route{Kind: PathMixer, Key: m[1]}
	}
	if strings.Contains(path, "DeckCount") {
		return Route{Kind: PathDeckCount, Key: path}
	}
	switch path {
	case PathSDCardConnected, PathUSBConnected:
		return Route{Kind: PathDeviceMedia, Key: path}
	case PathActiveDeck:
		return Route{Kind: PathGUI, Key: path}
	}
	return Route{Kind: PathIgnored, Key: path}
}

// normaliseEngineField maps a path remainder under /Engine/DeckN/ to its
// logical field name.
func normaliseEngineField(rest string) string {
	if rest == trackCurrentBPM {
		return "TrackBPM"
	}
	return strings.TrimPrefix(rest, trackPrefix)
}

// ApplyStateChange routes one raw path/value update to the matching reducer.
//
// It reports whether the update changed the tree's inputs: dropped paths,
// untracked decks and unknown fields return false. It never fails.
func (s *State) ApplyStateChange(path string, value any) bool {
	r := Classify(path)

	switch r.Kind {
	case PathEngineDeck, PathClientDeck:
		d := s.deck(r.Deck)
		if d == nil {
			return false
		}
		return d.apply(r.Field, value)

	case PathMixer:
		return s.Mixer.apply(r.Key, value)

	case PathDeckCount:
		n := coerceInt(value)
		if n <= 0 {
			n = defaultDeckCount
		}
		s.Device.DeckCount = n
		return true

	case PathDeviceMedia:
		if r.Key == PathSDCardConnected {
			s.Device.HasSDCard = coerceBool(value)
		} else {
			s.Device.HasUSB = coerceBool(value)
		}
		return true

	case PathGUI:
		s.Device.ActiveDeck = parseActiveDeck(value)
		return true
	}

	return false
}

// parseActiveDeck accepts a bare number or a string ending in digits
// (e.g. "Deck3").
func parseActiveDeck(v any) int {
	n := 0
	if str, ok := v.(string); ok {
		if m := trailingDigits.FindStringSubmatch(str); m != nil {
			n = atoi(m[1])
		}
	} else {
		n = coerceInt(v)
	}

	if n <= 0 {
		return defaultActiveDeck
	}
	return n
}

// atoi converts a digit string, returning 0 on overflow or bad input.
func atoi(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}
