package hls

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/Eyevinn/hls-m3u8/m3u8"

	"playcore/internal/domain"
	"playcore/internal/domain/ports"
)

const (
	fetchTimeout = 15 * time.Second

	// maxStreamReloads bounds consecutive network-recovery attempts. A
	// successful manifest parse resets the budget; exhausting it escalates
	// to a fatal non-recoverable error instead of looping on a dead origin.
	maxStreamReloads = 3
	reloadBackoff    = 250 * time.Millisecond
)

// Engine is the HLS transport backend. It fetches and parses the manifest,
// exposes the master playlist's variants as selectable quality levels and
// feeds the chosen rendition to the attached sink. Outcomes are reported on
// the event channel; the unified player consumes them and drives recovery.
type Engine struct {
	log    *slog.Logger
	client *http.Client

	ctx    context.Context
	cancel context.CancelFunc

	mu          sync.Mutex
	sink        ports.MediaSink
	manifestURL string
	levels      []domain.QualityLevel
	current     int
	reloads     int
	destroyed   bool

	events chan domain.EngineEvent
}

// New builds an unattached engine. A nil client gets a default with a fetch
// timeout; manifest fetches are additionally bounded by the engine lifetime.
func New(log *slog.Logger, client *http.Client) *Engine {
	if client == nil {
		client = &http.Client{Timeout: fetchTimeout}
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Engine{
		log:     log,
		client:  client,
		ctx:     ctx,
		cancel:  cancel,
		current: -1,
		events:  make(chan domain.EngineEvent, 16),
	}
}

func (e *Engine) Attach(sink ports.MediaSink) {
	e.mu.Lock()
	e.sink = sink
	e.mu.Unlock()
}

// Load fetches the manifest asynchronously. EventManifestParsed carries the
// quality levels of a master playlist; a media playlist yields no levels.
func (e *Engine) Load(manifestURL string) {
	e.mu.Lock()
	if e.destroyed {
		e.mu.Unlock()
		return
	}
	e.manifestURL = manifestURL
	e.mu.Unlock()

	go e.fetchManifest(manifestURL)
}

func (e *Engine) fetchManifest(manifestURL string) {
	req, err := http.NewRequestWithContext(e.ctx, http.MethodGet, manifestURL, nil)
	if err != nil {
		e.emitError(domain.ErrorClassNetwork, true, fmt.Errorf("build manifest request: %w", err))
		return
	}
	resp, err := e.client.Do(req)
	if err != nil {
		e.emitError(domain.ErrorClassNetwork, true, fmt.Errorf("fetch manifest: %w", err))
		return
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		e.emitError(domain.ErrorClassNetwork, true, fmt.Errorf("fetch manifest: status %d", resp.StatusCode))
		return
	}

	playlist, listType, err := m3u8.DecodeFrom(resp.Body, true)
	if err != nil {
		e.emitError(domain.ErrorClassNetwork, true, fmt.Errorf("parse manifest: %w", err))
		return
	}

	switch listType {
	case m3u8.MASTER:
		master := playlist.(*m3u8.MasterPlaylist)
		e.applyMaster(manifestURL, master)
	case m3u8.MEDIA:
		e.applyMedia(manifestURL)
	default:
		e.emitError(domain.ErrorClassNetwork, true, fmt.Errorf("parse manifest: unrecognized playlist type"))
	}
}

func (e *Engine) applyMaster(manifestURL string, master *m3u8.MasterPlaylist) {
	levels := make([]domain.QualityLevel, 0, len(master.Variants))
	for i, v := range master.Variants {
		if v == nil {
			continue
		}
		levels = append(levels, domain.QualityLevel{
			Index:      i,
			Bandwidth:  v.Bandwidth,
			Resolution: v.Resolution,
			URI:        resolveURL(manifestURL, v.URI),
		})
	}
	if len(levels) == 0 {
		e.emitError(domain.ErrorClassNetwork, true, fmt.Errorf("parse manifest: master playlist has no variants"))
		return
	}

	e.mu.Lock()
	e.levels = levels
	e.current = -1
	e.reloads = 0
	sink := e.sink
	e.mu.Unlock()

	// Auto selection starts on the highest-bandwidth variant; the sink's own
	// buffering feedback is not modeled here.
	chosen := bestBandwidth(levels)
	if err := e.setSinkSource(sink, chosen.URI); err != nil {
		return
	}
	e.log.Debug("hls manifest parsed",
		slog.String("url", manifestURL),
		slog.Int("levels", len(levels)))
	e.emit(domain.EngineEvent{Type: domain.EventManifestParsed, Levels: levels})
}

func (e *Engine) applyMedia(manifestURL string) {
	e.mu.Lock()
	e.levels = nil
	e.current = -1
	e.reloads = 0
	sink := e.sink
	e.mu.Unlock()

	if err := e.setSinkSource(sink, manifestURL); err != nil {
		return
	}
	e.log.Debug("hls manifest parsed", slog.String("url", manifestURL), slog.Int("levels", 0))
	e.emit(domain.EngineEvent{Type: domain.EventManifestParsed})
}

func (e *Engine) setSinkSource(sink ports.MediaSink, uri string) error {
	if sink == nil {
		err := fmt.Errorf("load before attach")
		e.emitError(domain.ErrorClassOther, true, err)
		return err
	}
	if err := sink.SetSource(uri); err != nil {
		e.emitError(domain.ErrorClassMedia, true, fmt.Errorf("assign source: %w", err))
		return err
	}
	return nil
}

func (e *Engine) Events() <-chan domain.EngineEvent { return e.events }

func (e *Engine) Levels() []domain.QualityLevel {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]domain.QualityLevel, len(e.levels))
	copy(out, e.levels)
	return out
}

func (e *Engine) CurrentLevel() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.current
}

// SetLevel pins a variant by index; -1 restores automatic selection.
func (e *Engine) SetLevel(index int) error {
	e.mu.Lock()
	if e.destroyed {
		e.mu.Unlock()
		return domain.ErrEngineDestroyed
	}
	if len(e.levels) == 0 {
		e.mu.Unlock()
		// No master playlist: the sink already has the only rendition, so
		// auto selection has nothing to do and every pin is out of range.
		if index == -1 {
			return nil
		}
		return fmt.Errorf("quality level %d out of range", index)
	}
	if index < -1 || index >= len(e.levels) {
		e.mu.Unlock()
		return fmt.Errorf("quality level %d out of range", index)
	}
	var target domain.QualityLevel
	if index == -1 {
		target = bestBandwidth(e.levels)
	} else {
		target = e.levels[index]
	}
	e.current = index
	sink := e.sink
	e.mu.Unlock()

	if err := e.setSinkSource(sink, target.URI); err != nil {
		return err
	}
	e.emit(domain.EngineEvent{Type: domain.EventLevelSwitched, Level: index})
	return nil
}

// ReloadStream re-fetches the manifest without rebuilding the engine. This is
// the recovery path for fatal network-class errors. Attempts are counted and
// backed off; once the budget is spent the failure escalates as a fatal
// non-recoverable error so the player tears the engine down instead of
// looping against a dead origin.
func (e *Engine) ReloadStream() {
	e.mu.Lock()
	manifestURL := e.manifestURL
	destroyed := e.destroyed
	if !destroyed && manifestURL != "" {
		e.reloads++
	}
	attempt := e.reloads
	e.mu.Unlock()
	if destroyed || manifestURL == "" {
		return
	}
	if attempt > maxStreamReloads {
		e.emitError(domain.ErrorClassOther, true,
			fmt.Errorf("stream reload: %d attempts exhausted", maxStreamReloads))
		return
	}

	e.log.Info("reloading hls stream",
		slog.String("url", manifestURL),
		slog.Int("attempt", attempt))
	go func() {
		if attempt > 1 {
			select {
			case <-e.ctx.Done():
				return
			case <-time.After(time.Duration(attempt-1) * reloadBackoff):
			}
		}
		e.fetchManifest(manifestURL)
	}()
}

// RecoverMedia re-assigns the current source, forcing the sink to rebuild its
// decode pipeline. This is the recovery path for fatal media-class errors.
func (e *Engine) RecoverMedia() {
	e.mu.Lock()
	sink := e.sink
	destroyed := e.destroyed
	e.mu.Unlock()
	if destroyed || sink == nil {
		return
	}
	source := sink.Source()
	if source == "" {
		return
	}
	e.log.Info("recovering hls media pipeline")
	sink.ClearSource()
	if err := sink.SetSource(source); err != nil {
		e.emitError(domain.ErrorClassMedia, true, fmt.Errorf("media recovery: %w", err))
	}
}

func (e *Engine) Destroy() {
	e.mu.Lock()
	if e.destroyed {
		e.mu.Unlock()
		return
	}
	e.destroyed = true
	e.mu.Unlock()

	e.cancel()
	close(e.events)
}

func (e *Engine) emitError(class domain.ErrorClass, fatal bool, err error) {
	e.log.Warn("hls engine error",
		slog.String("class", string(class)),
		slog.Bool("fatal", fatal),
		slog.String("error", err.Error()))
	e.emit(domain.EngineEvent{Type: domain.EventError, Class: class, Fatal: fatal, Err: err})
}

// emit drops events once destroyed or when the consumer lags; playback must
// not block on event delivery.
func (e *Engine) emit(ev domain.EngineEvent) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.destroyed {
		return
	}
	select {
	case e.events <- ev:
	default:
	}
}

func bestBandwidth(levels []domain.QualityLevel) domain.QualityLevel {
	best := levels[0]
	for _, l := range levels[1:] {
		if l.Bandwidth > best.Bandwidth {
			best = l
		}
	}
	return best
}

// resolveURL resolves a possibly relative variant URI against the manifest
// URL it came from.
func resolveURL(base, ref string) string {
	b, err := url.Parse(base)
	if err != nil {
		return ref
	}
	r, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	return b.ResolveReference(r).String()
}
