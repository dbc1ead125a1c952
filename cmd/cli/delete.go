package cli

import (
	"context"
	"fmt"

	"github.com/axellelanca/linkforge/cmd"
	"github.com/spf13/cobra"
)

var deleteOwnerFlag string

// DeleteCmd represents the 'delete' command
var DeleteCmd = &cobra.Command{
	Use:   "delete [short-code]",
	Short: "Deletes a short URL owned by --owner.",
	Long: `Deletes the link. Its click history is kept and the code is never
issued again.`,
	Args: cobra.ExactArgs(1),
	RunE: func(c *cobra.Command, args []string) error {
		a, err := cmd.OpenApp(c.Context())
		if err != nil {
			return err
		}
		defer a.Close(context.Background())

		if err := a.LinkService.Delete(c.Context(), args[0], deleteOwnerFlag); err != nil {
			return err
		}
		fmt.Fprintf(c.OutOrStdout(), "Short URL %s deleted.\n", args[0])
		return nil
	},
}

func init() {
	DeleteCmd.Flags().StringVar(&deleteOwnerFlag, "owner", "", "Owner id")
	_ = DeleteCmd.MarkFlagRequired("owner")
	cmd.RootCmd.AddCommand(DeleteCmd)
}
