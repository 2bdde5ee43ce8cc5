package main

import (
	"fmt"

	"psgc-api/internal/ingest"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate <file>",
	Short: "Check the structure of a PSGC datafile without importing it",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rep := ingest.ValidateFile(args[0], cfg.PSGC.Sheet)
		out := cmd.OutOrStdout()
		if rep.Valid() {
			fmt.Fprintln(out, "OK:", args[0])
			return nil
		}
		for _, e := range rep.Errors {
			fmt.Fprintln(out, "  -", e)
		}
		return errors.Errorf("%s: %d validation error(s)", args[0], len(rep.Errors))
	},
}
