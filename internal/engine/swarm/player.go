package swarm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/anacrolix/torrent"
	"github.com/anacrolix/torrent/metainfo"

	"playcore/internal/domain"
)

// addTimeout caps how long we wait for the swarm client to accept a torrent.
// AddMagnet can block on an internal client mutex when the client is busy.
const addTimeout = 10 * time.Second

const defaultStatsInterval = time.Second

// StatsFunc receives a statistics snapshot once per poll interval while a
// torrent is active.
type StatsFunc func(domain.SwarmStats)

type Config struct {
	// DataDir is where downloaded pieces are stored. Empty uses the swarm
	// client's default.
	DataDir string
	// StatsInterval overrides the 1s statistics poll, mainly for tests.
	StatsInterval time.Duration
}

// Player is the torrent-backed transport: it joins a peer swarm, selects the
// largest playable video file and serves it over a local HTTP endpoint the
// media sink can stream from while pieces are still arriving.
//
// One Player carries at most one active torrent. Load while a session is
// active fails with ErrSessionActive; Destroy first to start over.
type Player struct {
	log *slog.Logger
	cfg Config

	mu        sync.Mutex
	client    *torrent.Client
	torrent   *torrent.Torrent
	file      *torrent.File
	selected  domain.FileRef
	source    *httpSource
	stopStats chan struct{}
	destroyed bool

	speedMu sync.Mutex
	speed   speedSample

	wg   sync.WaitGroup
	errs chan error
}

func New(log *slog.Logger, cfg Config) *Player {
	if cfg.StatsInterval <= 0 {
		cfg.StatsInterval = defaultStatsInterval
	}
	return &Player{
		log:  log,
		cfg:  cfg,
		errs: make(chan error, 8),
	}
}

// Errors delivers asynchronous swarm-level failures. They do not tear down
// the session; the caller decides whether to retry or destroy.
func (p *Player) Errors() <-chan error { return p.errs }

// Load joins the swarm for reference (magnet URI, torrent-descriptor URL or
// local descriptor path), waits for metadata, selects the playable file and
// returns a local URL the sink can stream it from. onStats, when non-nil, is
// invoked once per poll interval until Destroy.
func (p *Player) Load(ctx context.Context, reference string, onStats StatsFunc) (string, error) {
	p.mu.Lock()
	if p.destroyed {
		p.mu.Unlock()
		return "", domain.ErrEngineDestroyed
	}
	if p.torrent != nil {
		p.mu.Unlock()
		return "", domain.ErrSessionActive
	}
	client, err := p.ensureClientLocked()
	if err != nil {
		p.mu.Unlock()
		return "", err
	}
	p.mu.Unlock()

	t, err := p.addTorrent(ctx, client, reference)
	if err != nil {
		return "", err
	}

	select {
	case <-t.GotInfo():
	case <-ctx.Done():
		t.Drop()
		return "", ctx.Err()
	}

	selected, err := selectPlayableFile(fileRefs(t))
	if err != nil {
		t.Drop()
		return "", err
	}
	file := t.Files()[selected.Index]
	file.Download()

	src := newHTTPSource(p.log, file, p.reportError)
	streamURL, err := src.start()
	if err != nil {
		t.Drop()
		return "", fmt.Errorf("start stream endpoint: %w", err)
	}

	stop := make(chan struct{})
	p.mu.Lock()
	if p.destroyed {
		p.mu.Unlock()
		src.close()
		t.Drop()
		return "", domain.ErrEngineDestroyed
	}
	p.torrent = t
	p.file = file
	p.selected = selected
	p.source = src
	p.stopStats = stop
	p.mu.Unlock()

	p.log.Info("swarm session started",
		slog.String("name", t.Name()),
		slog.String("file", selected.Path),
		slog.Int64("length", selected.Length),
		slog.String("stream_url", streamURL))

	p.wg.Add(1)
	go p.statsLoop(stop, onStats)

	return streamURL, nil
}

func (p *Player) ensureClientLocked() (*torrent.Client, error) {
	if p.client != nil {
		return p.client, nil
	}
	clientConfig := torrent.NewDefaultClientConfig()
	if p.cfg.DataDir != "" {
		clientConfig.DataDir = p.cfg.DataDir
	}
	client, err := torrent.NewClient(clientConfig)
	if err != nil {
		return nil, fmt.Errorf("create swarm client: %w", err)
	}
	p.client = client
	return client, nil
}

// addTorrent runs the client add call with a timeout so a busy client never
// blocks the caller indefinitely.
func (p *Player) addTorrent(ctx context.Context, client *torrent.Client, reference string) (*torrent.Torrent, error) {
	type addResult struct {
		t   *torrent.Torrent
		err error
	}
	ch := make(chan addResult, 1)
	go func() {
		t, err := p.add(ctx, client, reference)
		ch <- addResult{t, err}
	}()

	select {
	case res := <-ch:
		return res.t, res.err
	case <-time.After(addTimeout):
		// The add may still complete after we give up; drop the orphan.
		go func() {
			if res := <-ch; res.t != nil {
				res.t.Drop()
			}
		}()
		return nil, errors.New("swarm client busy, try again later")
	case <-ctx.Done():
		go func() {
			if res := <-ch; res.t != nil {
				res.t.Drop()
			}
		}()
		return nil, ctx.Err()
	}
}

func (p *Player) add(ctx context.Context, client *torrent.Client, reference string) (*torrent.Torrent, error) {
	switch {
	case strings.HasPrefix(strings.ToLower(reference), "magnet:"):
		return client.AddMagnet(reference)
	case strings.HasPrefix(reference, "http://"), strings.HasPrefix(reference, "https://"):
		mi, err := fetchMetainfo(ctx, reference)
		if err != nil {
			return nil, err
		}
		t, err := client.AddTorrent(mi)
		return t, err
	default:
		return client.AddTorrentFromFile(reference)
	}
}

func fetchMetainfo(ctx context.Context, descriptorURL string) (*metainfo.MetaInfo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, descriptorURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build descriptor request: %w", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch torrent descriptor: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch torrent descriptor: status %d", resp.StatusCode)
	}
	mi, err := metainfo.Load(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse torrent descriptor: %w", err)
	}
	return mi, nil
}

func fileRefs(t *torrent.Torrent) []domain.FileRef {
	files := t.Files()
	refs := make([]domain.FileRef, len(files))
	for i, f := range files {
		refs[i] = domain.FileRef{
			Index:          i,
			Path:           f.Path(),
			Length:         f.Length(),
			BytesCompleted: f.BytesCompleted(),
		}
	}
	return refs
}

// SelectedFile reports the file chosen for playback; ok is false while no
// torrent is active.
func (p *Player) SelectedFile() (domain.FileRef, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.torrent == nil {
		return domain.FileRef{}, false
	}
	ref := p.selected
	if p.file != nil {
		ref.BytesCompleted = p.file.BytesCompleted()
	}
	return ref, true
}

// StreamURL is the local endpoint serving the selected file; empty while no
// torrent is active.
func (p *Player) StreamURL() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.source == nil {
		return ""
	}
	return p.source.url
}

// Stats returns a point-in-time snapshot, or nil when no torrent is active.
func (p *Player) Stats() *domain.SwarmStats {
	p.mu.Lock()
	t, f := p.torrent, p.file
	p.mu.Unlock()
	if t == nil {
		return nil
	}

	stats := t.Stats()
	now := time.Now().UTC()
	download, upload := p.sampleSpeed(stats, now)

	var progress float64
	if f != nil && f.Length() > 0 {
		progress = float64(f.BytesCompleted()) / float64(f.Length())
		if progress > 1 {
			progress = 1
		}
	}

	return &domain.SwarmStats{
		DownloadSpeed: download,
		UploadSpeed:   upload,
		Progress:      progress,
		NumPeers:      stats.ActivePeers,
		Downloaded:    stats.BytesReadUsefulData.Int64(),
		Uploaded:      stats.BytesWrittenData.Int64(),
		UpdatedAt:     now,
	}
}

func (p *Player) statsLoop(stop <-chan struct{}, onStats StatsFunc) {
	defer p.wg.Done()
	ticker := time.NewTicker(p.cfg.StatsInterval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			if s := p.Stats(); s != nil && onStats != nil {
				onStats(*s)
			}
		}
	}
}

type speedSample struct {
	at           time.Time
	bytesRead    int64
	bytesWritten int64
}

// sampleSpeed derives byte-per-second rates from the delta against the
// previous sample. The first sample after a load reports zero.
func (p *Player) sampleSpeed(stats torrent.TorrentStats, now time.Time) (int64, int64) {
	currentRead := stats.BytesReadUsefulData.Int64()
	currentWritten := stats.BytesWrittenData.Int64()

	p.speedMu.Lock()
	defer p.speedMu.Unlock()

	prev := p.speed
	p.speed = speedSample{at: now, bytesRead: currentRead, bytesWritten: currentWritten}

	if prev.at.IsZero() {
		return 0, 0
	}
	dt := now.Sub(prev.at).Seconds()
	if dt <= 0 {
		return 0, 0
	}

	deltaRead := currentRead - prev.bytesRead
	deltaWritten := currentWritten - prev.bytesWritten
	if deltaRead < 0 {
		deltaRead = 0
	}
	if deltaWritten < 0 {
		deltaWritten = 0
	}
	return int64(float64(deltaRead) / dt), int64(float64(deltaWritten) / dt)
}

// Destroy stops the statistics poll, then drops the torrent, then closes the
// swarm client. The poll must stop before the torrent handle it reads is
// invalidated. Idempotent.
func (p *Player) Destroy() {
	p.mu.Lock()
	if p.destroyed {
		p.mu.Unlock()
		return
	}
	p.destroyed = true
	stop := p.stopStats
	t := p.torrent
	client := p.client
	src := p.source
	p.torrent, p.file, p.source, p.stopStats, p.client = nil, nil, nil, nil, nil
	p.mu.Unlock()

	if stop != nil {
		close(stop)
	}
	p.wg.Wait()

	if src != nil {
		src.close()
	}
	if t != nil {
		t.Drop()
	}
	if client != nil {
		client.Close()
	}

	p.speedMu.Lock()
	p.speed = speedSample{}
	p.speedMu.Unlock()

	p.log.Info("swarm session destroyed")
}

func (p *Player) reportError(err error) {
	select {
	case p.errs <- err:
	default:
	}
}
