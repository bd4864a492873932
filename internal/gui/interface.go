package gui

import (
	"ocrdrop/internal/config"
	"ocrdrop/internal/widget"
)

// Interface defines the contract for GUI operations
type Interface interface {
	Run()
	ShowError(title string, err error)
	ShowInfo(message string)
}

// Factory creates GUI instances
type Factory struct {
	config *config.Config
	widget *widget.Widget
}

// NewFactory creates a new GUI factory
func NewFactory(cfg *config.Config, w *widget.Widget) *Factory {
	return &Factory{config: cfg, widget: w}
}
