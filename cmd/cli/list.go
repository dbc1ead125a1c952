package cli

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/axellelanca/linkforge/cmd"
	"github.com/spf13/cobra"
)

var listOwnerFlag string

// ListCmd represents the 'list' command
var ListCmd = &cobra.Command{
	Use:   "list",
	Short: "Lists the short URLs of an owner.",
	RunE: func(c *cobra.Command, args []string) error {
		a, err := cmd.OpenApp(c.Context())
		if err != nil {
			return err
		}
		defer a.Close(context.Background())

		links, err := a.LinkService.List(c.Context(), listOwnerFlag)
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(c.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "CODE\tCLICKS\tCREATED\tLONG URL")
		for _, l := range links {
			fmt.Fprintf(w, "%s\t%d\t%s\t%s\n", l.Code, l.Clicks, l.CreatedAt.Format("2006-01-02"), l.OriginalURL)
		}
		return w.Flush()
	},
}

func init() {
	ListCmd.Flags().StringVar(&listOwnerFlag, "owner", "", "Owner id")
	_ = ListCmd.MarkFlagRequired("owner")
	cmd.RootCmd.AddCommand(ListCmd)
}
