package deckstate

import (
	"encoding/json"
	"testing"
)

func decodeStatus(t *testing.T, raw string) PlayerStatus {
	t.Helper()
	var p PlayerStatus
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		t.Fatalf("unmarshal %s: %v", raw, err)
	}
	return p
}

func TestDeckRefNumber(t *testing.T) {
	tests := []struct {
		ref  DeckRef
		want int
		ok   bool
	}{
		{"A", 1, true},
		{"b", 2, true},
		{"D", 4, true},
		{"3", 3, true},
		{" c ", 3, true},
		{"E", 0, false},
		{"5", 0, false},
		{"0", 0, false},
		{"", 0, false},
		{"AB", 0, false},
	}
	for _, tt := range tests {
		got, ok := tt.ref.Number()
		if got != tt.want || ok != tt.ok {
			t.Errorf("DeckRef(%q).Number() = %d, %v; want %d, %v", tt.ref, got, ok, tt.want, tt.ok)
		}
	}
}

func TestDeckNumberResolution(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want int
		ok   bool
	}{
		{"letter", `{"deck":"B"}`, 2, true},
		{"numeric deck", `{"deck":4}`, 4, true},
		{"player only", `{"player":3}`, 3, true},
		{"deck wins over player", `{"deck":"A","player":3}`, 1, true},
		{"bad deck falls back to player", `{"deck":"Z","player":2}`, 2, true},
		{"player out of range", `{"player":7}`, 0, false},
		{"nothing", `{}`, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := decodeStatus(t, tt.raw)
			got, ok := p.DeckNumber()
			if got != tt.want || ok != tt.ok {
				t.Errorf("DeckNumber() = %d, %v; want %d, %v", got, ok, tt.want, tt.ok)
			}
		})
	}
}

// TestStatusMergeIsPresenceBased verifies absent fields keep prior values.
func TestStatusMergeIsPresenceBased(t *testing.T) {
	s := NewState()
	s.ApplyPlayerStatus(decodeStatus(t, `{"deck":"A","play":true}`))
	if !s.Decks[0].Play {
		t.Fatal("Play = false, want true")
	}

	s.ApplyPlayerStatus(decodeStatus(t, `{"deck":"A"}`))
	if !s.Decks[0].Play {
		t.Error("absent play changed value")
	}

	s.ApplyPlayerStatus(decodeStatus(t, `{"deck":"A","play":null}`))
	if !s.Decks[0].Play {
		t.Error("null play changed value")
	}

	s.ApplyPlayerStatus(decodeStatus(t, `{"deck":"A","play":false}`))
	if s.Decks[0].Play {
		t.Error("explicit false did not overwrite")
	}
}

// TestStatusBPMGuard verifies zero tempos never overwrite known ones.
func TestStatusBPMGuard(t *testing.T) {
	s := NewState()
	s.ApplyPlayerStatus(decodeStatus(t, `{"deck":"A","trackBpm":128.0,"currentBpm":126.0}`))
	s.ApplyPlayerStatus(decodeStatus(t, `{"deck":"A","trackBpm":0,"currentBpm":0}`))

	if s.Decks[0].TrackBPM != 128 {
		t.Errorf("TrackBPM = %v, want 128", s.Decks[0].TrackBPM)
	}
	if s.Decks[0].CurrentBPM != 126 {
		t.Errorf("CurrentBPM = %v, want 126", s.Decks[0].CurrentBPM)
	}
}

func TestStatusTitleScenario(t *testing.T) {
	s := NewState()
	ok := s.ApplyPlayerStatus(decodeStatus(t, `{"player":3,"title":"Strobe","artist":"deadmau5","songLoaded":true}`))
	if !ok {
		t.Fatal("ApplyPlayerStatus() = false")
	}

	d := s.Decks[2]
	if d.TrackName != "Strobe" || d.SongName != "Strobe" {
		t.Errorf("TrackName=%q SongName=%q, want Strobe", d.TrackName, d.SongName)
	}
	if d.ArtistName != "deadmau5" || !d.SongLoaded {
		t.Errorf("ArtistName=%q SongLoaded=%v", d.ArtistName, d.SongLoaded)
	}
}

func TestStatusTrackURIPrecedence(t *testing.T) {
	s := NewState()
	s.ApplyPlayerStatus(decodeStatus(t, `{"deck":"A","trackPath":"/music/a.flac","fileLocation":"/other/a.flac"}`))
	if got := s.Decks[0].TrackURI; got != "/music/a.flac" {
		t.Errorf("TrackURI = %q, want trackPath", got)
	}

	s.ApplyPlayerStatus(decodeStatus(t, `{"deck":"A","fileLocation":"/other/b.flac"}`))
	if got := s.Decks[0].TrackURI; got != "/other/b.flac" {
		t.Errorf("TrackURI = %q, want fileLocation", got)
	}
}

func TestStatusHotcuesAndIdentity(t *testing.T) {
	s := NewState()
	s.ApplyPlayerStatus(decodeStatus(t, `{
		"deck": "C",
		"keyIndex": 5,
		"masterStatus": true,
		"hotcue1": {"state": true, "color": "#ff0000"},
		"hotcue8": {"state": false, "color": ""},
		"address": "192.168.1.40",
		"name": "SC6000"
	}`))

	d := s.Decks[2]
	if len(d.Hotcues) != 2 {
		t.Fatalf("len(Hotcues) = %d, want 2", len(d.Hotcues))
	}
	if cue := d.Hotcues[1]; !cue.State || cue.Color != "#ff0000" {
		t.Errorf("Hotcues[1] = %+v", cue)
	}
	if _, ok := d.Hotcues[8]; !ok {
		t.Error("Hotcues[8] missing")
	}
	if d.KeyIndex != 5 || d.Key != KeyLabel(5) || !d.Master {
		t.Errorf("KeyIndex=%d Key=%q Master=%v", d.KeyIndex, d.Key, d.Master)
	}
	if s.Device.IP != "192.168.1.40" || s.Device.Name != "SC6000" {
		t.Errorf("Device = %+v", s.Device)
	}
}

func TestStatusUnresolvedDeckIgnored(t *testing.T) {
	s := NewState()
	if s.ApplyPlayerStatus(decodeStatus(t, `{"deck":"Q","title":"Lost"}`)) {
		t.Error("ApplyPlayerStatus() = true for unresolvable deck")
	}
	for i, d := range s.Decks {
		if d.TrackName != "" {
			t.Errorf("deck %d TrackName = %q", i+1, d.TrackName)
		}
	}
}

// TestStatusLooselyTypedFields verifies a member with an unexpected JSON type
// does not cost the rest of the update.
func TestStatusLooselyTypedFields(t *testing.T) {
	tests := []struct {
		name  string
		raw   string
		check func(t *testing.T, d DeckState)
	}{
		{
			name: "numeric hotcue state",
			raw:  `{"deck":"A","play":false,"hotcue1":{"state":1,"color":"#00ff00"}}`,
			check: func(t *testing.T, d DeckState) {
				if cue := d.Hotcues[1]; !cue.State || cue.Color != "#00ff00" {
					t.Errorf("Hotcues[1] = %+v, want on and green", cue)
				}
			},
		},
		{
			name: "fractional key index",
			raw:  `{"deck":"A","play":false,"keyIndex":5.0}`,
			check: func(t *testing.T, d DeckState) {
				if d.KeyIndex != 5 || d.Key != KeyLabel(5) {
					t.Errorf("KeyIndex=%d Key=%q, want 5", d.KeyIndex, d.Key)
				}
			},
		},
		{
			name: "string player",
			raw:  `{"player":"1","play":false}`,
		},
		{
			name: "string bpm",
			raw:  `{"deck":"A","play":false,"currentBpm":"128"}`,
			check: func(t *testing.T, d DeckState) {
				if d.CurrentBPM != 128 {
					t.Errorf("CurrentBPM = %v, want 128", d.CurrentBPM)
				}
			},
		},
		{
			name: "unparseable bpm is absent",
			raw:  `{"deck":"A","play":false,"currentBpm":"fast"}`,
			check: func(t *testing.T, d DeckState) {
				if d.CurrentBPM != 120 {
					t.Errorf("CurrentBPM = %v, want prior 120", d.CurrentBPM)
				}
			},
		},
		{
			name: "object where a string belongs",
			raw:  `{"deck":"A","play":false,"title":{"text":"x"},"artist":"Kiasmos"}`,
			check: func(t *testing.T, d DeckState) {
				if d.TrackName != "before" || d.ArtistName != "Kiasmos" {
					t.Errorf("TrackName=%q ArtistName=%q", d.TrackName, d.ArtistName)
				}
			},
		},
		{
			name: "string boolean",
			raw:  `{"deck":1,"play":"false","masterStatus":"1"}`,
			check: func(t *testing.T, d DeckState) {
				if !d.Master {
					t.Error("Master = false, want true")
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewState()
			s.Decks[0].Play = true
			s.Decks[0].CurrentBPM = 120
			s.Decks[0].TrackName = "before"

			if !s.ApplyPlayerStatus(decodeStatus(t, tt.raw)) {
				t.Fatal("ApplyPlayerStatus() = false, want true")
			}
			if s.Decks[0].Play {
				t.Error("Play = true, want explicit false applied")
			}
			if tt.check != nil {
				tt.check(t, s.Decks[0])
			}
		})
	}
}

func TestStatusRejectsNonObject(t *testing.T) {
	for _, raw := range []string{`[]`, `"deck"`, `{`} {
		var p PlayerStatus
		if err := json.Unmarshal([]byte(raw), &p); err == nil {
			t.Errorf("Unmarshal(%s) error = nil, want error", raw)
		}
	}
}

func TestHotcueUnmarshal(t *testing.T) {
	tests := []struct {
		raw  string
		want Hotcue
	}{
		{`{"state":true,"color":"#ff0000"}`, Hotcue{State: true, Color: "#ff0000"}},
		{`{"state":1}`, Hotcue{State: true}},
		{`{"state":"0","color":3}`, Hotcue{Color: "3"}},
		{`true`, Hotcue{State: true}},
		{`{}`, Hotcue{}},
	}
	for _, tt := range tests {
		var got Hotcue
		if err := json.Unmarshal([]byte(tt.raw), &got); err != nil {
			t.Fatalf("Unmarshal(%s) error = %v", tt.raw, err)
		}
		if got != tt.want {
			t.Errorf("Unmarshal(%s) = %+v, want %+v", tt.raw, got, tt.want)
		}
	}
}

func TestStatusSourceRefreshesDeviceName(t *testing.T) {
	s := NewState()
	s.ApplyPlayerStatus(decodeStatus(t, `{"deck":"B","source":"SC6000-2"}`))
	if s.Device.Name != "SC6000-2" || s.Decks[1].SourceName != "SC6000-2" {
		t.Errorf("Device.Name=%q SourceName=%q, want SC6000-2", s.Device.Name, s.Decks[1].SourceName)
	}

	s.ApplyPlayerStatus(decodeStatus(t, `{"deck":"B","source":"USB 1","name":"prime4"}`))
	if s.Device.Name != "prime4" {
		t.Errorf("Device.Name = %q, want explicit name", s.Device.Name)
	}

	s.ApplyPlayerStatus(decodeStatus(t, `{"deck":"B","source":""}`))
	if s.Device.Name != "prime4" {
		t.Errorf("empty source changed Device.Name to %q", s.Device.Name)
	}
}
