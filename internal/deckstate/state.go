package deckstate

import "encoding/json"

// DeckCount is the number of deck slots tracked, numbered 1..DeckCount.
const DeckCount = 4

// defaultCrossfader is the centre position of the crossfader.
const defaultCrossfader = 0.5

// ConnectionPhase is the lifecycle phase of the connection to the device.
type ConnectionPhase string

// Connection phases reported by the protocol adapter.
const (
	PhaseDisconnected ConnectionPhase = "disconnected"
	PhaseDiscovering  ConnectionPhase = "discovering"
	PhaseConnecting   ConnectionPhase = "connecting"
	PhaseConnected    ConnectionPhase = "connected"
)

// Valid reports whether p is a known connection phase.
func (p ConnectionPhase) Valid() bool {
	switch p {
	case PhaseDisconnected, PhaseDiscovering, PhaseConnecting, PhaseConnected:
		return true
	}
	return false
}

// DeviceState describes the connected unit as a whole.
type DeviceState struct {
	Name            string          `json:"name"`
	IP              string          `json:"ip"`
	SoftwareName    string          `json:"softwareName"`
	SoftwareVersion string          `json:"softwareVersion"`
	Phase           ConnectionPhase `json:"phase"`
	DeckCount       int             `json:"deckCount"`
	HasSDCard       bool            `json:"hasSdCard"`
	HasUSB          bool            `json:"hasUsb"`
	ActiveDeck      int             `json:"activeDeck"`
}

// MixerState holds fader positions in the range 0.0 to 1.0.
type MixerState struct {
	Fader1     float64 `json:"fader1"`
	Fader2     float64 `json:"fader2"`
	Fader3     float64 `json:"fader3"`
	Fader4     float64 `json:"fader4"`
	Crossfader float64 `json:"crossfader"`
}

// Hotcue describes a single hotcue slot on a deck.
type Hotcue struct {
	State bool   `json:"state"`
	Color string `json:"color"`
}

// UnmarshalJSON accepts a descriptor object with loosely typed members
// ({"state": 1, "color": "#ff0000"}) or a bare scalar taken as the state.
func (h *Hotcue) UnmarshalJSON(data []byte) error {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	h.fromValue(v)
	return nil
}

func (h *Hotcue) fromValue(v any) {
	*h = Hotcue{}
	if obj, ok := v.(map[string]any); ok {
		h.State = coerceBool(obj["state"])
		h.Color = coerceString(obj["color"])
		return
	}
	h.State = coerceBool(v)
}

// MaxHotcues is the number of hotcue slots per deck, indexed 1..MaxHotcues.
const MaxHotcues = 8

// DeckState is the reduced playback state of one deck.
//
// Every *Raw field is in samples; its counterpart without the suffix is in
// seconds and is only meaningful once SampleRate is known.
type DeckState struct {
	// Track identity
	TrackName        string `json:"trackName"`
	ArtistName       string `json:"artistName"`
	SongName         string `json:"songName"`
	TrackURI         string `json:"trackUri"`
	TrackNetworkPath string `json:"trackNetworkPath"`
	SourceName       string `json:"sourceName"`
	SongLoaded       bool   `json:"songLoaded"`
	SongAnalyzed     bool   `json:"songAnalyzed"`

	// Transport
	Play            bool    `json:"play"`
	PlayState       bool    `json:"playState"`
	CurrentPosition float64 `json:"currentPosition"`
	CuePosition     float64 `json:"cuePosition"`
	CuePositionRaw  float64 `json:"cuePositionRaw"`

	// Tempo
	CurrentBPM  float64 `json:"currentBpm"`
	TrackBPM    float64 `json:"trackBpm"`
	Speed       float64 `json:"speed"`
	SpeedRange  float64 `json:"speedRange"`
	SyncMode    bool    `json:"syncMode"`
	Master      bool    `json:"master"`
	MasterTempo float64 `json:"masterTempo"`

	// Key
	KeyIndex int    `json:"keyIndex"`
	Key      string `json:"key"`
	KeyLock  bool   `json:"keyLock"`

	// Loop
	LoopEnabled     bool    `json:"loopEnabled"`
	LoopIn          float64 `json:"loopIn"`
	LoopOut         float64 `json:"loopOut"`
	LoopInRaw       float64 `json:"loopInRaw"`
	LoopOutRaw      float64 `json:"loopOutRaw"`
	LoopSizeInBeats float64 `json:"loopSizeInBeats"`

	// Timing
	SampleRate     int     `json:"sampleRate"`
	TrackLength    float64 `json:"trackLength"`
	TrackLengthRaw float64 `json:"trackLengthRaw"`
	Beat           float64 `json:"beat"`
	TotalBeats     float64 `json:"totalBeats"`

	// External controls
	ScratchTouch   bool    `json:"scratchTouch"`
	ExternalVolume float64 `json:"externalVolume"`
	JogColor       string  `json:"jogColor"`

	Hotcues map[int]Hotcue `json:"hotcues,omitempty"`
}

// clone returns a deep copy of the deck.
func (d *DeckState) clone() DeckState {
	c := *d
	if d.Hotcues != nil {
		c.Hotcues = make(map[int]Hotcue, len(d.Hotcues))
		for k, v := range d.Hotcues {
			c.Hotcues[k] = v
		}
	}
	return c
}

// State is the full mutable state tree.
//
// State is not safe for concurrent use. Store serialises access to it;
// tests and single-threaded callers may use it directly.
type State struct {
	Device DeviceState
	Mixer  MixerState
	Decks  [DeckCount]DeckState
}

// NewState returns an empty state tree with initial defaults.
func NewState() *State {
	s := &State{}
	s.Reset()
	return s
}

// Reset replaces the whole tree with fresh defaults.
// Partial resets are never performed: a stale sample rate on one deck would
// corrupt every later sample-domain derivation.
func (s *State) Reset() {
	*s = State{
		Device: DeviceState{
			Phase:      PhaseDisconnected,
			ActiveDeck: 1,
		},
		Mixer: MixerState{
			Crossfader: defaultCrossfader,
		},
	}
}

// deck returns the deck for a 1-based number, or nil when it is not tracked.
func (s *State) deck(number int) *DeckState {
	if number < 1 || number > DeckCount {
		return nil
	}
	return &s.Decks[number-1]
}

// Snapshot is an immutable deep copy of the state tree for consumers.
type Snapshot struct {
	Decks  map[int]DeckState `json:"decks"`
	Mixer  MixerState        `json:"mixer"`
	Device DeviceState       `json:"device"`
}

// Snapshot returns a deep copy of the current state.
func (s *State) Snapshot() *Snapshot {
	snap := &Snapshot{
		Decks:  make(map[int]DeckState, DeckCount),
		Mixer:  s.Mixer,
		Device: s.Device,
	}
	for i := range s.Decks {
		snap.Decks[i+1] = s.Decks[i].clone()
	}
	return snap
}

// Clone returns a deep copy of the snapshot.
func (s *Snapshot) Clone() *Snapshot {
	if s == nil {
		return nil
	}
	c := &Snapshot{
		Decks:  make(map[int]DeckState, len(s.Decks)),
		Mixer:  s.Mixer,
		Device: s.Device,
	}
	for n, d := range s.Decks {
		c.Decks[n] = d.clone()
	}
	return c
}

// Deck returns a copy of one deck from the snapshot.
func (s *Snapshot) Deck(number int) (DeckState, bool) {
	d, ok := s.Decks[number]
	return d, ok
}
