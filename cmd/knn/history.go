package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/YuminosukeSato/goknn/pkg/errors"
	"github.com/YuminosukeSato/goknn/store"
	"github.com/spf13/cobra"
)

func newHistoryCmd(root *rootOptions) *cobra.Command {
	var (
		limit int
		db    string
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded runs, most recent first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := root.loadConfig()
			if err != nil {
				return err
			}
			if db == "" {
				db = cfg.HistoryDB
			}
			if db == "" {
				return errors.NewValidationError("history_db", "set history_db in the config or pass --db", db)
			}

			st, err := store.Open(db)
			if err != nil {
				return err
			}
			defer st.Close()

			runs, err := st.List(cmd.Context(), limit)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tSTARTED\tDATASET\tK\tBACKEND\tTRAIN\tTEST\tACCURACY\tDURATION")
			for _, r := range runs {
				fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\t%d\t%d\t%.2f%%\t%v\n",
					r.ID[:min(8, len(r.ID))], r.StartedAt.Format(time.DateTime), r.Dataset, r.K, r.Backend,
					r.NTrain, r.NTest, r.Accuracy*100, r.Duration)
			}
			return w.Flush()
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "maximum number of runs (0 for all)")
	cmd.Flags().StringVar(&db, "db", "", "history database (defaults to history_db from the config)")
	return cmd
}
