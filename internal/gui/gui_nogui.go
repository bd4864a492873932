//go:build nogui
// +build nogui

package gui

import (
	"ocrdrop/internal/errors"
)

// Create fails in builds with the GUI disabled.
func (f *Factory) Create() (Interface, error) {
	return nil, errors.New("GUI not available in this build, use the terminal interface")
}

// IsGUIAvailable returns whether the GUI is available in this build
func IsGUIAvailable() bool {
	return false
}
