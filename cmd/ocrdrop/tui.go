package main

import (
	"ocrdrop/internal/tui"
	"ocrdrop/internal/watch"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
)

func newTUICmd(a *app) *cobra.Command {
	var watchFolder bool

	cmd := &cobra.Command{
		Use:         "tui",
		Short:       "Start the terminal interface",
		Long:        `Start the terminal widget. Paste or type file paths into the drop zone, or press enter to browse.`,
		Annotations: map[string]string{interactive: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTUI(a, watchFolder)
		},
	}
	cmd.Flags().BoolVar(&watchFolder, "watch", false, "also upload files dropped into the configured folder")
	return cmd
}

func runTUI(a *app, watchFolder bool) error {
	w, err := a.newWidget()
	if err != nil {
		return err
	}
	defer w.Close()

	if watchFolder {
		d, err := watch.NewDaemon(a.cfg, w.DropZone())
		if err != nil {
			return err
		}
		if err := d.Start(); err != nil {
			return err
		}
		defer d.Stop()
	}

	m := tui.New(w, a.cfg)
	defer m.Close()

	_, err = tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion()).Run()
	return err
}
