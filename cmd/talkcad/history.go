package main

import (
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/Faultbox/talkcad/internal/ledger"
	"github.com/Faultbox/talkcad/internal/logger"
)

func (a *app) newHistoryCmd() *cobra.Command {
	var (
		sessionID string
		asYAML    bool
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List archived revisions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.initLogging(); err != nil {
				return err
			}
			defer logger.Sync()

			store, err := a.openArchive()
			if err != nil {
				return err
			}
			if store == nil {
				return errors.New("archive disabled: set archive.path in the config file")
			}
			defer store.Close()

			revs, err := store.List(cmd.Context(), sessionID)
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			if asYAML {
				enc := yaml.NewEncoder(w)
				enc.SetIndent(2)
				if err := enc.Encode(struct {
					Revisions []ledger.Revision `yaml:"revisions"`
				}{revs}); err != nil {
					return err
				}
				return enc.Close()
			}

			if len(revs) == 0 {
				fmt.Fprintln(w, "No revisions yet")
				return nil
			}
			tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "#\tTIME\tDESCRIPTION\tPARAMETERS")
			for i, rev := range revs {
				fmt.Fprintf(tw, "%d\t%s\t%s\t%v\n", i, rev.Timestamp.Local().Format("2006-01-02 15:04:05"), rev.Description, rev.Parameters)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().StringVar(&sessionID, "session", "", "Only show this session")
	cmd.Flags().BoolVar(&asYAML, "yaml", false, "Print as YAML")
	return cmd
}
