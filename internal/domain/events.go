package domain

// EngineEventType identifies a signal emitted by a transport engine.
type EngineEventType string

const (
	EventManifestParsed EngineEventType = "manifest_parsed"
	EventLevelSwitched  EngineEventType = "level_switched"
	EventError          EngineEventType = "error"
)

// ErrorClass partitions engine errors for the recovery policy: network-class
// fatal errors are retried with a stream reload, media-class with a media
// recovery, anything else tears the engine down.
type ErrorClass string

const (
	ErrorClassNetwork ErrorClass = "network"
	ErrorClassMedia   ErrorClass = "media"
	ErrorClassOther   ErrorClass = "other"
)

// EngineEvent is delivered on an engine's event channel and consumed by the
// unified player's run loop. Only the fields relevant to Type are set.
type EngineEvent struct {
	Type   EngineEventType
	Levels []QualityLevel
	Level  int
	Class  ErrorClass
	Fatal  bool
	Err    error
}
