package main

import (
	"ocrdrop/internal/gui"

	"github.com/spf13/cobra"
)

func newGUICmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:         "gui",
		Short:       "Launch the graphical user interface",
		Long:        `Open a window that accepts files dragged from the desktop.`,
		Annotations: map[string]string{interactive: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			w, err := a.newWidget()
			if err != nil {
				return err
			}
			defer w.Close()

			g, err := gui.NewFactory(a.cfg, w).Create()
			if err != nil {
				return err
			}
			g.Run()
			return nil
		},
	}
}
