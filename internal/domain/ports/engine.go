package ports

import "playcore/internal/domain"

// ManifestEngine is what the unified player needs from the segmented-manifest
// backend. Load is asynchronous; results and failures arrive as events.
type ManifestEngine interface {
	// Attach binds the engine to the sink it will feed. Must be called before
	// Load.
	Attach(sink MediaSink)

	// Load begins fetching and parsing the manifest. The outcome is reported
	// on Events as EventManifestParsed or EventError.
	Load(manifestURL string)

	Events() <-chan domain.EngineEvent

	// Levels is populated once the manifest has parsed.
	Levels() []domain.QualityLevel
	CurrentLevel() int
	// SetLevel pins a quality level by index; -1 restores automatic
	// selection.
	SetLevel(index int) error

	// ReloadStream is the recovery primitive for fatal network-class errors:
	// it re-fetches the manifest without rebuilding the engine.
	ReloadStream()
	// RecoverMedia is the recovery primitive for fatal media-decoding errors.
	RecoverMedia()

	// Destroy releases the engine. Idempotent; the event channel is closed.
	Destroy()
}
