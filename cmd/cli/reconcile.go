package cli

import (
	"context"
	"fmt"

	"github.com/axellelanca/linkforge/cmd"
	"github.com/axellelanca/linkforge/internal/monitor"
	"github.com/spf13/cobra"
)

// ReconcileCmd represents the 'reconcile' command
var ReconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Raises click counters that fell behind their recorded events.",
	RunE: func(c *cobra.Command, args []string) error {
		a, err := cmd.OpenApp(c.Context())
		if err != nil {
			return err
		}
		defer a.Close(context.Background())

		fixed, err := monitor.NewReconciler(a.Links, a.Clicks, a.Logger).Reconcile(c.Context())
		if err != nil {
			return err
		}
		fmt.Fprintf(c.OutOrStdout(), "%d link(s) reconciled.\n", fixed)
		return nil
	},
}

func init() {
	cmd.RootCmd.AddCommand(ReconcileCmd)
}
