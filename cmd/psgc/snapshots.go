package main

import (
	"fmt"
	"strconv"
	"text/tabwriter"

	"psgc-api/internal/store"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var pruneKeep int

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.Errorf("invalid snapshot id %q", s)
	}
	return id, nil
}

func deref(s *string) string {
	if s == nil {
		return "-"
	}
	return *s
}

var versionsCmd = &cobra.Command{
	Use:   "versions",
	Short: "List imported snapshots",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()
		vs, err := st.Versions(cmd.Context())
		if err != nil {
			return err
		}
		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tCURRENT\tQUARTER\tYEAR\tREGIONS\tPROVINCES\tCITIES/MUNS\tBARANGAYS\tFILE")
		for _, v := range vs {
			cur := ""
			if v.IsCurrent {
				cur = "*"
			}
			fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%d\t%d\t%d\t%d\t%s\n",
				v.ID, cur, deref(v.Quarter), deref(v.Year),
				v.RegionsCount, v.ProvincesCount, v.CitiesMunicipalitiesCount, v.BarangaysCount, deref(v.Filename))
		}
		return tw.Flush()
	},
}

var promoteCmd = &cobra.Command{
	Use:   "promote <id>",
	Short: "Make a snapshot the current one",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()
		if err := st.SetCurrent(cmd.Context(), id); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "current snapshot:", id)
		return nil
	},
}

var deleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a non-current snapshot and all of its rows",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()
		if err := st.DeleteSnapshot(cmd.Context(), id); err != nil {
			if errors.Is(err, store.ErrSnapshotCurrent) {
				return errors.Wrap(err, "promote another snapshot first")
			}
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "deleted snapshot:", id)
		return nil
	},
}

// 保留窗口：当前版本占一个名额，其余名额给最新的非当前版本
var pruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete old snapshots, keeping the current one and the newest others",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if pruneKeep < 1 {
			return errors.New("--keep must be at least 1")
		}
		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()
		ids, err := st.Prune(cmd.Context(), pruneKeep)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "pruned %d snapshot(s) %v\n", len(ids), ids)
		return nil
	},
}

func init() {
	pruneCmd.Flags().IntVar(&pruneKeep, "keep", 10, "number of snapshots to keep")
}
