package deckstate

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// DeckRef is a deck identifier in a player status: a letter A-D or a digit
// 1-4. In JSON it is either a string ("A", "b", "3") or a number (3).
type DeckRef string

// Number resolves the reference to a 1-based deck number.
func (r DeckRef) Number() (int, bool) {
	s := strings.ToUpper(strings.TrimSpace(string(r)))
	if len(s) != 1 {
		return 0, false
	}
	switch c := s[0]; {
	case c >= 'A' && c <= 'A'+DeckCount-1:
		return int(c-'A') + 1, true
	case c >= '1' && c <= '0'+DeckCount:
		return int(c-'0'), true
	}
	return 0, false
}

// PlayerStatus is a partial deck status emitted by the protocol adapter.
//
// Every field is optional. A nil pointer means the field was absent (or JSON
// null) and leaves the deck untouched; a non-nil pointer is applied even when
// it holds a zero value, so an explicit false overwrites a prior true.
//
// Decoding is per field and lenient: see UnmarshalJSON.
type PlayerStatus struct {
	Deck   *DeckRef `json:"deck,omitempty"`
	Player *int     `json:"player,omitempty"`

	Title            *string `json:"title,omitempty"`
	Artist           *string `json:"artist,omitempty"`
	SongLoaded       *bool   `json:"songLoaded,omitempty"`
	TrackNetworkPath *string `json:"trackNetworkPath,omitempty"`
	TrackPath        *string `json:"trackPath,omitempty"`
	FileLocation     *string `json:"fileLocation,omitempty"`
	Source           *string `json:"source,omitempty"`

	Play      *bool `json:"play,omitempty"`
	PlayState *bool `json:"playState,omitempty"`

	CurrentBPM          *float64 `json:"currentBpm,omitempty"`
	TrackBPM            *float64 `json:"trackBpm,omitempty"`
	MasterStatus        *bool    `json:"masterStatus,omitempty"`
	MasterTempo         *float64 `json:"masterTempo,omitempty"`
	ExternalMixerVolume *float64 `json:"externalMixerVolume,omitempty"`
	JogColor            *string  `json:"jogColor,omitempty"`
	KeyIndex            *int     `json:"keyIndex,omitempty"`

	Hotcue1 *Hotcue `json:"hotcue1,omitempty"`
	Hotcue2 *Hotcue `json:"hotcue2,omitempty"`
	Hotcue3 *Hotcue `json:"hotcue3,omitempty"`
	Hotcue4 *Hotcue `json:"hotcue4,omitempty"`
	Hotcue5 *Hotcue `json:"hotcue5,omitempty"`
	Hotcue6 *Hotcue `json:"hotcue6,omitempty"`
	Hotcue7 *Hotcue `json:"hotcue7,omitempty"`
	Hotcue8 *Hotcue `json:"hotcue8,omitempty"`

	// Identity of the unit that produced the status.
	Address *string `json:"address,omitempty"`
	Name    *string `json:"name,omitempty"`
}

// statusFields maps each JSON member to the lenient decoder for its field.
var statusFields = map[string]func(p *PlayerStatus, v any){
	"deck":                func(p *PlayerStatus, v any) { p.Deck = looseDeckRef(v) },
	"player":              func(p *PlayerStatus, v any) { p.Player = looseInt(v) },
	"title":               func(p *PlayerStatus, v any) { p.Title = looseString(v) },
	"artist":              func(p *PlayerStatus, v any) { p.Artist = looseString(v) },
	"songLoaded":          func(p *PlayerStatus, v any) { p.SongLoaded = looseBool(v) },
	"trackNetworkPath":    func(p *PlayerStatus, v any) { p.TrackNetworkPath = looseString(v) },
	"trackPath":           func(p *PlayerStatus, v any) { p.TrackPath = looseString(v) },
	"fileLocation":        func(p *PlayerStatus, v any) { p.FileLocation = looseString(v) },
	"source":              func(p *PlayerStatus, v any) { p.Source = looseString(v) },
	"play":                func(p *PlayerStatus, v any) { p.Play = looseBool(v) },
	"playState":           func(p *PlayerStatus, v any) { p.PlayState = looseBool(v) },
	"currentBpm":          func(p *PlayerStatus, v any) { p.CurrentBPM = looseFloat(v) },
	"trackBpm":            func(p *PlayerStatus, v any) { p.TrackBPM = looseFloat(v) },
	"masterStatus":        func(p *PlayerStatus, v any) { p.MasterStatus = looseBool(v) },
	"masterTempo":         func(p *PlayerStatus, v any) { p.MasterTempo = looseFloat(v) },
	"externalMixerVolume": func(p *PlayerStatus, v any) { p.ExternalMixerVolume = looseFloat(v) },
	"jogColor":            func(p *PlayerStatus, v any) { p.JogColor = looseString(v) },
	"keyIndex":            func(p *PlayerStatus, v any) { p.KeyIndex = looseInt(v) },
	"hotcue1":             func(p *PlayerStatus, v any) { p.Hotcue1 = looseHotcue(v) },
	"hotcue2":             func(p *PlayerStatus, v any) { p.Hotcue2 = looseHotcue(v) },
	"hotcue3":             func(p *PlayerStatus, v any) { p.Hotcue3 = looseHotcue(v) },
	"hotcue4":             func(p *PlayerStatus, v any) { p.Hotcue4 = looseHotcue(v) },
	"hotcue5":             func(p *PlayerStatus, v any) { p.Hotcue5 = looseHotcue(v) },
	"hotcue6":             func(p *PlayerStatus, v any) { p.Hotcue6 = looseHotcue(v) },
	"hotcue7":             func(p *PlayerStatus, v any) { p.Hotcue7 = looseHotcue(v) },
	"hotcue8":             func(p *PlayerStatus, v any) { p.Hotcue8 = looseHotcue(v) },
	"address":             func(p *PlayerStatus, v any) { p.Address = looseString(v) },
	"name":                func(p *PlayerStatus, v any) { p.Name = looseString(v) },
}

// UnmarshalJSON decodes a status object one member at a time.
//
// Only a payload that is not a JSON object is an error. A member whose value
// cannot be converted to its field's type is treated as absent, so the rest
// of the update still applies. Unknown members are ignored.
func (p *PlayerStatus) UnmarshalJSON(data []byte) error {
	var members map[string]json.RawMessage
	if err := json.Unmarshal(data, &members); err != nil {
		return err
	}

	*p = PlayerStatus{}
	for key, raw := range members {
		decode, ok := statusFields[key]
		if !ok {
			continue
		}
		var v any
		if err := json.Unmarshal(raw, &v); err != nil {
			continue
		}
		decode(p, v)
	}
	return nil
}

// isScalar reports whether a decoded JSON value is a non-null scalar.
func isScalar(v any) bool {
	switch v.(type) {
	case nil, map[string]any, []any:
		return false
	}
	return true
}

func looseString(v any) *string {
	if !isScalar(v) {
		return nil
	}
	s := coerceString(v)
	return &s
}

func looseBool(v any) *bool {
	if !isScalar(v) {
		return nil
	}
	b := coerceBool(v)
	return &b
}

// looseFloat returns nil for values that do not parse as a finite number.
func looseFloat(v any) *float64 {
	f, ok := toFloat(v)
	if !ok || math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	return &f
}

func looseInt(v any) *int {
	f := looseFloat(v)
	if f == nil {
		return nil
	}
	n := int(*f)
	return &n
}

func looseDeckRef(v any) *DeckRef {
	var ref DeckRef
	switch t := v.(type) {
	case string:
		ref = DeckRef(t)
	case float64:
		ref = DeckRef(strconv.FormatFloat(t, 'f', -1, 64))
	default:
		return nil
	}
	return &ref
}

func looseHotcue(v any) *Hotcue {
	if v == nil {
		return nil
	}
	var cue Hotcue
	cue.fromValue(v)
	return &cue
}

// DeckNumber resolves which deck the status targets.
// The deck reference wins when it resolves; otherwise the player index is used.
func (p *PlayerStatus) DeckNumber() (int, bool) {
	if p.Deck != nil {
		if n, ok := p.Deck.Number(); ok {
			return n, true
		}
	}
	if p.Player != nil && *p.Player >= 1 && *p.Player <= DeckCount {
		return *p.Player, true
	}
	return 0, false
}

// hotcues returns the indexed hotcue fields, slot 0 being hotcue 1.
func (p *PlayerStatus) hotcues() [MaxHotcues]*Hotcue {
	return [MaxHotcues]*Hotcue{
		p.Hotcue1, p.Hotcue2, p.Hotcue3, p.Hotcue4,
		p.Hotcue5, p.Hotcue6, p.Hotcue7, p.Hotcue8,
	}
}

// ApplyPlayerStatus merges a player status into the target deck.
// It reports false, leaving the tree untouched, when the deck cannot be resolved.
func (s *State) ApplyPlayerStatus(p PlayerStatus) bool {
	n, ok := p.DeckNumber()
	if !ok {
		return false
	}
	d := s.deck(n)

	if p.Title != nil {
		d.TrackName = *p.Title
		d.SongName = *p.Title
	}
	setIfPresent(&d.ArtistName, p.Artist)
	setIfPresent(&d.SongLoaded, p.SongLoaded)
	setIfPresent(&d.TrackNetworkPath, p.TrackNetworkPath)
	setIfPresent(&d.SourceName, p.Source)
	setIfPresent(&d.Play, p.Play)
	setIfPresent(&d.PlayState, p.PlayState)
	setIfPresent(&d.Master, p.MasterStatus)
	setIfPresent(&d.MasterTempo, p.MasterTempo)
	setIfPresent(&d.ExternalVolume, p.ExternalMixerVolume)
	setIfPresent(&d.JogColor, p.JogColor)

	switch {
	case p.TrackPath != nil:
		d.TrackURI = *p.TrackPath
	case p.FileLocation != nil:
		d.TrackURI = *p.FileLocation
	}

	// A zero tempo in a status means "not known by this source", never a
	// genuine tempo of zero.
	if p.CurrentBPM != nil && *p.CurrentBPM > 0 {
		d.CurrentBPM = *p.CurrentBPM
	}
	if p.TrackBPM != nil && *p.TrackBPM > 0 {
		d.TrackBPM = *p.TrackBPM
	}

	if p.KeyIndex != nil {
		d.setKeyIndex(*p.KeyIndex)
	}

	for i, cue := range p.hotcues() {
		if cue == nil {
			continue
		}
		if d.Hotcues == nil {
			d.Hotcues = make(map[int]Hotcue, MaxHotcues)
		}
		d.Hotcues[i+1] = *cue
	}

	setIfPresent(&s.Device.IP, p.Address)
	switch {
	case p.Name != nil:
		s.Device.Name = *p.Name
	case p.Source != nil && *p.Source != "":
		s.Device.Name = *p.Source
	}

	return true
}

// setIfPresent copies *src into dst when src is non-nil.
func setIfPresent[T any](dst *T, src *T) {
	if src != nil {
		*dst = *src
	}
}
