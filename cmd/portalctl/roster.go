package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/UB-CSE-IT/Autolab-Self-Service/internal/dto"
	"github.com/UB-CSE-IT/Autolab-Self-Service/internal/metrics"
	"github.com/UB-CSE-IT/Autolab-Self-Service/internal/repository"
	"github.com/UB-CSE-IT/Autolab-Self-Service/internal/service"
	"github.com/UB-CSE-IT/Autolab-Self-Service/pkg/autolab"
)

var rosterCmd = &cobra.Command{
	Use:   "roster",
	Short: "Manage course rosters",
}

var rosterSyncCmd = &cobra.Command{
	Use:   "sync <course>",
	Short: "Reconcile a tracked course's roster with the learning platform",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEnv()
		if err != nil {
			return err
		}
		defer e.close()

		platform := newPlatformClient(e.cfg, autolab.FileTokenStore{Path: e.cfg.Autolab.RefreshTokenFile}, e.logger)

		roster := service.NewRosterService(repository.NewRepository(e.db), platform, metrics.Nop{}, e.logger)
		delta, err := roster.Sync(cmd.Context(), args[0], service.SystemActor)
		if err != nil {
			return err
		}
		printDelta(cmd.OutOrStdout(), delta)
		return nil
	},
}

func printDelta(w io.Writer, delta *dto.RosterDeltaResponse) {
	for _, group := range []struct {
		label  string
		emails []string
	}{
		{"created", delta.Created},
		{"updated", delta.Updated},
		{"deleted", delta.Deleted},
	} {
		fmt.Fprintf(w, "%s: %d\n", group.label, len(group.emails))
		for _, email := range group.emails {
			fmt.Fprintf(w, "  %s\n", email)
		}
	}
}

func init() {
	rosterCmd.AddCommand(rosterSyncCmd)
	rootCmd.AddCommand(rosterCmd)
}
