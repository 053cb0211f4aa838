package deckstate

// DeckField identifies a recognised deck state field.
type DeckField int

// Deck fields. Each has exactly one coercion rule in (*DeckState).apply.
const (
	FieldUnknown DeckField = iota
	FieldArtistName
	FieldSongName
	FieldTrackName
	FieldTrackURI
	FieldTrackNetworkPath
	FieldSourceName
	FieldSongLoaded
	FieldSongAnalyzed
	FieldPlay
	FieldPlayState
	FieldCurrentBPM
	FieldTrackBPM
	FieldSpeed
	FieldSpeedRange
	FieldSyncMode
	FieldMaster
	FieldMasterTempo
	FieldKeyIndex
	FieldKeyLock
	FieldLoopEnabled
	FieldLoopIn
	FieldLoopOut
	FieldLoopSizeInBeats
	FieldSampleRate
	FieldTrackLength
	FieldCuePosition
	FieldPosition
	FieldBeat
	FieldTotalBeats
	FieldScratchTouch
	FieldExternalVolume
	FieldJogColor
)

// engineFields maps names under /Engine/DeckN/ (after Track/ stripping).
var engineFields = map[string]DeckField{
	"ArtistName":                FieldArtistName,
	"SongName":                  FieldSongName,
	"TrackName":                 FieldTrackName,
	"TrackURI":                  FieldTrackURI,
	"TrackNetworkPath":          FieldTrackNetworkPath,
	"SourceName":                FieldSourceName,
	"SongLoaded":                FieldSongLoaded,
	"SongAnalyzed":              FieldSongAnalyzed,
	"Play":                      FieldPlay,
	"PlayState":                 FieldPlayState,
	"CurrentBPM":                FieldCurrentBPM,
	"TrackBPM":                  FieldTrackBPM,
	"Speed":                     FieldSpeed,
	"SpeedRange":                FieldSpeedRange,
	"SyncMode":                  FieldSyncMode,
	"DeckIsMaster":              FieldMaster,
	"MasterTempo":               FieldMasterTempo,
	"CurrentKeyIndex":           FieldKeyIndex,
	"KeyLock":                   FieldKeyLock,
	"LoopEnableState":           FieldLoopEnabled,
	"CurrentLoopInPosition":     FieldLoopIn,
	"CurrentLoopOutPosition":    FieldLoopOut,
	"CurrentLoopSizeInBeats":    FieldLoopSizeInBeats,
	"SampleRate":                FieldSampleRate,
	"TrackLength":               FieldTrackLength,
	"CuePosition":               FieldCuePosition,
	"PlayStatePath":             FieldPosition,
	"CurrentBeat":               FieldBeat,
	"TotalBeats":                FieldTotalBeats,
	"ExternalScratchWheelTouch": FieldScratchTouch,
	"ExternalMixerVolume":       FieldExternalVolume,
}

// clientFields maps names under /Client/DeckN/. This namespace is flat.
var clientFields = map[string]DeckField{
	"JogColor":                  FieldJogColor,
	"DeckIsMaster":              FieldMaster,
	"SyncMode":                  FieldSyncMode,
	"ExternalScratchWheelTouch": FieldScratchTouch,
}

// EngineField looks up a field name from the engine namespace.
func EngineField(name string) DeckField {
	return engineFields[name]
}

// ClientField looks up a field name from the client namespace.
func ClientField(name string) DeckField {
	return clientFields[name]
}

// apply mutates the deck for one field update and reports whether the field
// was recognised.
func (d *DeckState) apply(field DeckField, v any) bool {
	switch field {
	case FieldArtistName:
		d.ArtistName = coerceString(v)
	case FieldSongName:
		d.SongName = coerceString(v)
	case FieldTrackName:
		d.TrackName = coerceString(v)
	case FieldTrackURI:
		d.TrackURI = coerceString(v)
	case FieldTrackNetworkPath:
		d.TrackNetworkPath = coerceString(v)
	case FieldSourceName:
		d.SourceName = coerceString(v)
	case FieldJogColor:
		d.JogColor = coerceString(v)

	case FieldSongLoaded:
		d.SongLoaded = coerceBool(v)
	case FieldSongAnalyzed:
		d.SongAnalyzed = coerceBool(v)
	case FieldPlay:
		d.Play = coerceBool(v)
	case FieldPlayState:
		d.PlayState = coerceBool(v)
	case FieldSyncMode:
		d.SyncMode = coerceBool(v)
	case FieldMaster:
		d.Master = coerceBool(v)
	case FieldLoopEnabled:
		d.LoopEnabled = coerceBool(v)
	case FieldScratchTouch:
		d.ScratchTouch = coerceBool(v)
	case FieldKeyLock:
		d.KeyLock = coerceKeyLock(v)

	case FieldCurrentBPM:
		d.CurrentBPM = coerceFloat(v)
	case FieldTrackBPM:
		d.TrackBPM = coerceFloat(v)
	case FieldSpeed:
		d.Speed = coerceFloat(v)
	case FieldSpeedRange:
		d.SpeedRange = coerceFloat(v)
	case FieldMasterTempo:
		d.MasterTempo = coerceFloat(v)
	case FieldExternalVolume:
		d.ExternalVolume = coerceFloat(v)
	case FieldLoopSizeInBeats:
		d.LoopSizeInBeats = coerceFloat(v)
	case FieldBeat:
		d.Beat = coerceFloat(v)
	case FieldTotalBeats:
		d.TotalBeats = coerceFloat(v)

	case FieldKeyIndex:
		d.setKeyIndex(coerceInt(v))

	case FieldTrackLength:
		d.setSampleDomain(&d.TrackLengthRaw, &d.TrackLength, coerceFloat(v))
	case FieldCuePosition:
		d.setSampleDomain(&d.CuePositionRaw, &d.CuePosition, coerceFloat(v))
	case FieldLoopIn:
		d.setSampleDomain(&d.LoopInRaw, &d.LoopIn, coerceFloat(v))
	case FieldLoopOut:
		d.setSampleDomain(&d.LoopOutRaw, &d.LoopOut, coerceFloat(v))

	case FieldSampleRate:
		d.SampleRate = coerceInt(v)
		d.backfillSampleDomain()

	case FieldPosition:
		d.setPosition(coerceFloat(v))

	default:
		return false
	}
	return true
}

// setKeyIndex stores the key index and its notation label.
func (d *DeckState) setKeyIndex(index int) {
	d.KeyIndex = index
	d.Key = KeyLabel(index)
}

// setPosition interprets a playhead value whose unit depends on firmware.
//
// Values above 1 are treated as a raw sample count; values in [0,1] as a
// fraction of the track length. The threshold is a heuristic, not a
// documented part of the protocol: a genuine sample position of 0 or 1 is
// indistinguishable from a fraction. If the value cannot be converted yet
// the previous position is kept.
func (d *DeckState) setPosition(v float64) {
	if v > 1 {
		if s, ok := SamplesToSeconds(v, d.SampleRate); ok {
			d.CurrentPosition = s
		}
		return
	}
	if v >= 0 && d.TrackLength > 0 {
		d.CurrentPosition = v * d.TrackLength
	}
}
