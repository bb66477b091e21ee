package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newVenuesCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "venues",
		Short: "List bookable venues and usage types",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := flags.load()
			if err != nil {
				return err
			}
			cat, err := cfg.Catalog()
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tNAME\tDESCRIPTION")
			for _, v := range cat.Venues() {
				fmt.Fprintf(tw, "%d\t%s\t%s\n", v.ID, v.Name, v.Description)
			}
			fmt.Fprintln(tw)
			fmt.Fprintln(tw, "USAGE TYPE\t")
			for _, u := range cat.UsageTypes() {
				marker := ""
				if u == cfg.Portal.UsageType {
					marker = "(default)"
				}
				fmt.Fprintf(tw, "%s\t%s\n", u, marker)
			}
			return tw.Flush()
		},
	}
}
