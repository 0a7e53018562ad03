package common

import "errors"

// ErrModulePaused is returned by Guard when the host has paused the module.
var ErrModulePaused = errors.New("module paused")

// PauseView exposes the host's pause switches to native modules.
type PauseView interface {
	IsPaused(module string) bool
}

// Guard rejects mutations while the named module is paused. A nil view or
// empty module name means pausing is not wired and the guard passes.
func Guard(p PauseView, module string) error {
	if p == nil || module == "" {
		return nil
	}
	if p.IsPaused(module) {
		return ErrModulePaused
	}
	return nil
}
