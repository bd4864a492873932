package main

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"ocrdrop/internal/errors"

	"github.com/spf13/cobra"
)

func newUploadCmd(a *app) *cobra.Command {
	var (
		timeout time.Duration
		asJSON  bool
	)

	cmd := &cobra.Command{
		Use:   "upload <files...>",
		Short: "Upload files and print their OCR text",
		Long: `Run files through the widget without a user interface: unsupported
types are skipped, every accepted file is uploaded and sent for OCR, and
each outcome is printed once all of them have settled.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()

			w, err := a.newWidget()
			if err != nil {
				return err
			}
			defer w.Close()

			added := w.AddPaths(args)
			if len(added) == 0 {
				exts := w.Filter().Extensions()
				return errors.NewInvalidInputError("no accepted files among the arguments (accepted: "+strings.Join(exts, " ")+")", nil).
					WithContext("accepted", exts)
			}
			if skipped := len(args) - len(added); skipped > 0 {
				fmt.Fprintln(cmd.ErrOrStderr(), warningText(fmt.Sprintf("Skipped %d file(s) of unsupported type", skipped)))
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()
			if err := w.Wait(ctx); err != nil {
				return errors.Wrap(err, "waiting for uploads")
			}

			entries := w.Entries()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				if err := enc.Encode(entries); err != nil {
					return errors.Wrap(err, "encoding entries")
				}
			} else {
				for _, e := range entries {
					printEntry(out, e)
				}
			}

			failed := 0
			for _, e := range entries {
				if e.Error != "" {
					failed++
				}
			}
			if failed > 0 {
				return errors.Newf("%d of %d file(s) failed", failed, len(entries))
			}
			return nil
		},
	}
	cmd.Flags().DurationVar(&timeout, "timeout", 2*time.Minute, "give up waiting after this long")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print entries as JSON")
	return cmd
}
