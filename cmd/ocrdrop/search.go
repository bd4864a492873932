package main

import (
	"fmt"
	"strings"

	"ocrdrop/internal/errors"
	"ocrdrop/pkg/types"

	"github.com/spf13/cobra"
)

func newSearchCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "search <file name>",
		Short: "Search processed documents by file name",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()

			w, err := a.newWidget()
			if err != nil {
				return err
			}
			defer w.Close()

			st := w.Search(cmd.Context(), strings.Join(args, " "))
			if st.Error != "" {
				return errors.New(st.Error)
			}
			if len(st.Results) == 0 {
				fmt.Fprintln(out, infoText("No results for "+st.Query))
				return nil
			}
			for _, r := range st.Results {
				fmt.Fprintln(out, headerText(r.Source))
				printPages(out, []types.PageResult{r.PageResult}, "  ")
			}
			return nil
		},
	}
}
