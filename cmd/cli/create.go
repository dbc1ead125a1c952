package cli

import (
	"context"
	"fmt"

	"github.com/axellelanca/linkforge/cmd"
	"github.com/axellelanca/linkforge/internal/services"
	"github.com/spf13/cobra"
)

var (
	longURLFlag     string
	ownerFlag       string
	titleFlag       string
	descriptionFlag string
)

// CreateCmd represents the 'create' command
var CreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Creates a short URL from a long URL.",
	Long: `This command shortens the given long URL and prints the generated code.
If the URL is already shortened, the existing mapping is printed instead.

Example:
  linkforge create --url="https://www.google.com/search?q=go+lang" --owner=alice`,
	RunE: func(c *cobra.Command, args []string) error {
		a, err := cmd.OpenApp(c.Context())
		if err != nil {
			return err
		}
		defer a.Close(context.Background())

		res, err := a.LinkService.Create(c.Context(), services.CreateInput{
			LongURL:     longURLFlag,
			OwnerID:     ownerFlag,
			Title:       titleFlag,
			Description: descriptionFlag,
		})
		if err != nil {
			return err
		}

		out := c.OutOrStdout()
		if res.Existing {
			fmt.Fprintln(out, "Provided Url already exists")
		} else {
			fmt.Fprintln(out, "Short URL created successfully:")
		}
		fmt.Fprintf(out, "Code: %s\n", res.Link.Code)
		fmt.Fprintf(out, "Short URL: %s\n", res.Link.ShortURL)
		return nil
	},
}

func init() {
	CreateCmd.Flags().StringVar(&longURLFlag, "url", "", "The long URL to shorten")
	CreateCmd.Flags().StringVar(&ownerFlag, "owner", "", "Owner id of the new link (empty for anonymous, if allowed)")
	CreateCmd.Flags().StringVar(&titleFlag, "title", "", "Optional title")
	CreateCmd.Flags().StringVar(&descriptionFlag, "description", "", "Optional description")
	_ = CreateCmd.MarkFlagRequired("url")

	cmd.RootCmd.AddCommand(CreateCmd)
}
