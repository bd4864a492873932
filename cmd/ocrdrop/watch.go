package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"ocrdrop/internal/log"
	"ocrdrop/internal/watch"
	"ocrdrop/internal/widget"

	"github.com/spf13/cobra"
)

// drainTimeout bounds how long a stopping watch waits for files in flight.
const drainTimeout = 30 * time.Second

func newWatchCmd(a *app) *cobra.Command {
	var scanExisting bool

	cmd := &cobra.Command{
		Use:   "watch [dir]",
		Short: "Upload every file dropped into a folder",
		Long: `Watch a drop folder (the argument or watch.directory from the config)
and upload each file that appears in it. Outcomes are printed as they
arrive. Stop with Ctrl+C.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				a.cfg.Watch.Directory = args[0]
			}
			if cmd.Flags().Changed("scan-existing") {
				a.cfg.Watch.ScanExisting = scanExisting
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runWatch(ctx, a, cmd.OutOrStdout())
		},
	}
	cmd.Flags().BoolVar(&scanExisting, "scan-existing", false, "also upload files already in the folder")
	return cmd
}

func runWatch(ctx context.Context, a *app, w io.Writer) error {
	out := &syncWriter{w: w}

	wd, err := a.newWidget()
	if err != nil {
		return err
	}
	defer wd.Close()

	d, err := watch.NewDaemon(a.cfg, wd.DropZone())
	if err != nil {
		return err
	}
	d.SetCallback(func(path string) {
		fmt.Fprintln(out, infoText("Picked up "+filepath.Base(path)))
	})

	changes, unsubscribe := wd.Subscribe()
	defer unsubscribe()

	if err := d.Start(); err != nil {
		return err
	}
	fmt.Fprintln(out, successText("Watching "+a.cfg.Watch.Directory))

	reported := make(map[string]int)
	for {
		select {
		case <-changes:
			report(out, wd, reported)
		case <-ctx.Done():
			d.Stop()

			drain, cancel := context.WithTimeout(context.Background(), drainTimeout)
			if err := wd.Wait(drain); err != nil {
				log.LogWithError(err).Warn("Stopped before every file finished")
			}
			cancel()
			report(out, wd, reported)

			st := d.Status()
			fmt.Fprintln(out, infoText(fmt.Sprintf("Stopped after %d file(s)", st.FilesProcessed)))
			return nil
		}
	}
}

// report prints entries that finished since the last call. An entry is
// printed again only when a retry produced a new outcome.
func report(out io.Writer, wd *widget.Widget, reported map[string]int) {
	for _, e := range wd.Entries() {
		if !finished(e) || reported[e.ID] == e.Attempt+1 {
			continue
		}
		reported[e.ID] = e.Attempt + 1
		printEntry(out, e)
	}
}
