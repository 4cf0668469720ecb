package player

const (
	seekStep   = 10.0
	volumeStep = 0.1
)

// HandleKey maps a keyboard shortcut onto the matching control. Bindings are
// active only while the rendering surface is visible; unknown keys and keys
// received while hidden report false.
func (p *Player) HandleKey(key string) bool {
	if !p.surface.Visible() {
		return false
	}
	switch key {
	case " ", "space", "k":
		_ = p.TogglePlay()
	case "f":
		_ = p.ToggleFullscreen()
	case "m":
		p.ToggleMute()
	case "left":
		p.SeekBy(-seekStep)
	case "right":
		p.SeekBy(seekStep)
	case "up":
		p.ChangeVolume(volumeStep)
	case "down":
		p.ChangeVolume(-volumeStep)
	case "esc", "escape":
		p.Close()
	case "p":
		_ = p.TogglePiP()
	default:
		return false
	}
	return true
}
