package history

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/nerrad567/deckstate-core/internal/deckstate"
	"github.com/nerrad567/deckstate-core/internal/infrastructure/influxdb"
)

// defaultPruneInterval applies when retention is set without an interval.
const defaultPruneInterval = 24 * time.Hour

// MetricsWriter receives deck and mixer telemetry.
// *influxdb.Client satisfies this interface.
type MetricsWriter interface {
	WriteDeckSample(s influxdb.DeckSample)
	WriteMixerSample(s influxdb.MixerSample)
}

// Logger is the structured logging interface used by the recorder.
type Logger interface {
	Info(msg string, keysAndValues ...any)
	Error(msg string, keysAndValues ...any)
}

// RecorderOptions configures a Recorder.
type RecorderOptions struct {
	// Repository stores track loads. Optional; nil disables the track log.
	Repository Repository

	// Metrics receives telemetry. Optional; nil disables telemetry.
	Metrics MetricsWriter

	// TelemetryInterval is the minimum gap between samples per deck.
	// Zero writes a sample for every snapshot.
	TelemetryInterval time.Duration

	// Retention is how long track loads are kept. Zero disables pruning.
	Retention time.Duration

	// PruneInterval is how often pruning runs. Default: 24 hours.
	PruneInterval time.Duration

	// Logger is optional.
	Logger Logger
}

type trackKey struct {
	title  string
	artist string
}

// Recorder derives track history and telemetry from store snapshots.
//
// Thread Safety: Observe may be called concurrently; Run should be started once.
type Recorder struct {
	repo          Repository
	metrics       MetricsWriter
	interval      time.Duration
	retention     time.Duration
	pruneInterval time.Duration
	logger        Logger
	now           func() time.Time

	mu          sync.Mutex
	lastTrack   map[int]trackKey
	lastSample  map[int]time.Time
	lastMixer   time.Time
	recorded    atomic.Uint64
	sampledDeck atomic.Uint64
}

// NewRecorder creates a recorder. Call Run with a snapshot subscription.
func NewRecorder(opts RecorderOptions) *Recorder {
	pruneInterval := opts.PruneInterval
	if pruneInterval <= 0 {
		pruneInterval = defaultPruneInterval
	}
	return &Recorder{
		repo:          opts.Repository,
		metrics:       opts.Metrics,
		interval:      opts.TelemetryInterval,
		retention:     opts.Retention,
		pruneInterval: pruneInterval,
		logger:        opts.Logger,
		now:           time.Now,
		lastTrack:     make(map[int]trackKey),
		lastSample:    make(map[int]time.Time),
	}
}

// Run observes snapshots until ctx is cancelled or the channel closes.
// When retention is configured it also prunes old track loads, once at start
// and then every prune interval.
func (r *Recorder) Run(ctx context.Context, snapshots <-chan *deckstate.Snapshot) error {
	var prune <-chan time.Time
	if r.repo != nil && r.retention > 0 {
		r.prune(ctx)
		ticker := time.NewTicker(r.pruneInterval)
		defer ticker.Stop()
		prune = ticker.C
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-prune:
			r.prune(ctx)
		case snap, ok := <-snapshots:
			if !ok {
				return nil
			}
			r.Observe(ctx, snap)
		}
	}
}

// Observe records any new track loads in snap and writes telemetry.
func (r *Recorder) Observe(ctx context.Context, snap *deckstate.Snapshot) {
	if snap == nil {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	for n := 1; n <= deckstate.DeckCount; n++ {
		deck, ok := snap.Deck(n)
		if !ok {
			continue
		}
		r.recordLoad(ctx, snap, n, deck, now)
		r.writeDeckSample(snap, n, deck, now)
	}
	r.writeMixerSample(snap, now)
}

// recordLoad persists a load when the deck's (title, artist) pair changes.
// Ejecting a track forgets the pair so reloading it records again.
func (r *Recorder) recordLoad(ctx context.Context, snap *deckstate.Snapshot, n int, deck deckstate.DeckState, now time.Time) {
	if !deck.SongLoaded {
		delete(r.lastTrack, n)
		return
	}

	title := deck.SongName
	if title == "" {
		title = deck.TrackName
	}
	key := trackKey{title: title, artist: deck.ArtistName}
	if key.title == "" && key.artist == "" {
		return
	}
	if last, ok := r.lastTrack[n]; ok && last == key {
		return
	}
	r.lastTrack[n] = key

	if r.repo == nil {
		return
	}

	bpm := deck.TrackBPM
	if bpm <= 0 {
		bpm = deck.CurrentBPM
	}
	load := &TrackLoad{
		Deck:       n,
		Title:      key.title,
		Artist:     key.artist,
		TrackURI:   deck.TrackURI,
		Source:     deck.SourceName,
		BPM:        bpm,
		KeyLabel:   deck.Key,
		DeviceName: snap.Device.Name,
		LoadedAt:   now,
	}
	if err := r.repo.RecordTrackLoad(ctx, load); err != nil {
		r.logError("failed to record track load", err, "deck", n)
		return
	}
	r.recorded.Add(1)
	r.logInfo("track loaded", "deck", n, "title", load.Title, "artist", load.Artist)
}

func (r *Recorder) writeDeckSample(snap *deckstate.Snapshot, n int, deck deckstate.DeckState, now time.Time) {
	if r.metrics == nil || !deck.SongLoaded {
		return
	}
	if last, ok := r.lastSample[n]; ok && now.Sub(last) < r.interval {
		return
	}
	r.lastSample[n] = now

	r.metrics.WriteDeckSample(influxdb.DeckSample{
		Device:   snap.Device.Name,
		Deck:     n,
		Playing:  deck.Play || deck.PlayState,
		Master:   deck.Master,
		BPM:      deck.CurrentBPM,
		Speed:    deck.Speed,
		Position: deck.CurrentPosition,
		Fader:    channelFader(snap.Mixer, n),
		Time:     now,
	})
	r.sampledDeck.Add(1)
}

func (r *Recorder) writeMixerSample(snap *deckstate.Snapshot, now time.Time) {
	if r.metrics == nil {
		return
	}
	if !r.lastMixer.IsZero() && now.Sub(r.lastMixer) < r.interval {
		return
	}
	r.lastMixer = now

	m := snap.Mixer
	r.metrics.WriteMixerSample(influxdb.MixerSample{
		Device:     snap.Device.Name,
		Faders:     [4]float64{m.Fader1, m.Fader2, m.Fader3, m.Fader4},
		Crossfader: m.Crossfader,
		Time:       now,
	})
}

func (r *Recorder) prune(ctx context.Context) {
	n, err := r.repo.Prune(ctx, r.retention)
	if err != nil {
		r.logError("failed to prune track history", err)
		return
	}
	if n > 0 {
		r.logInfo("pruned track history", "rows", n)
	}
}

// RecorderStats counts recorder output.
type RecorderStats struct {
	TrackLoads  uint64 `json:"track_loads"`
	DeckSamples uint64 `json:"deck_samples"`
}

// Stats returns the recorder counters.
func (r *Recorder) Stats() RecorderStats {
	return RecorderStats{
		TrackLoads:  r.recorded.Load(),
		DeckSamples: r.sampledDeck.Load(),
	}
}

// channelFader returns the mixer channel fader for a deck.
func channelFader(m deckstate.MixerState, deck int) float64 {
	switch deck {
	case 1:
		return m.Fader1
	case 2:
		return m.Fader2
	case 3:
		return m.Fader3
	case 4:
		return m.Fader4
	}
	return 0
}

func (r *Recorder) logInfo(msg string, keysAndValues ...any) {
	if r.logger != nil {
		r.logger.Info(msg, keysAndValues...)
	}
}

func (r *Recorder) logError(msg string, err error, keysAndValues ...any) {
	if r.logger != nil {
		r.logger.Error(msg, append([]any{"error", err}, keysAndValues...)...)
	}
}
