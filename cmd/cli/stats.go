package cli

import (
	"context"
	"fmt"

	"github.com/axellelanca/linkforge/cmd"
	"github.com/spf13/cobra"
)

var recentFlag int

// StatsCmd represents the 'stats' command
var StatsCmd = &cobra.Command{
	Use:   "stats [short-code]",
	Short: "Get statistics for a short URL",
	Long:  `Get the click counter and the most recent click events for the provided short code.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runStats,
}

func init() {
	StatsCmd.Flags().IntVar(&recentFlag, "recent", 10, "Number of recent click events to show")
	cmd.RootCmd.AddCommand(StatsCmd)
}

func runStats(c *cobra.Command, args []string) error {
	shortCode := args[0]

	a, err := cmd.OpenApp(c.Context())
	if err != nil {
		return err
	}
	defer a.Close(context.Background())

	link, err := a.LinkService.Get(c.Context(), shortCode)
	if err != nil {
		return err
	}
	recorded, err := a.Clicks.CountByCode(c.Context(), shortCode)
	if err != nil {
		return err
	}

	out := c.OutOrStdout()
	fmt.Fprintf(out, "Statistics for short code: %s\n", link.Code)
	fmt.Fprintf(out, "Long URL: %s\n", link.OriginalURL)
	fmt.Fprintf(out, "Total clicks: %d\n", link.Clicks)
	fmt.Fprintf(out, "Recorded events: %d\n", recorded)
	fmt.Fprintf(out, "Created at: %s\n", link.CreatedAt.Format("2006-01-02 15:04:05"))

	if recentFlag <= 0 {
		return nil
	}
	events, err := a.Clicks.ListByCode(c.Context(), shortCode, recentFlag)
	if err != nil {
		return err
	}
	for _, ev := range events {
		fmt.Fprintf(out, "  %s  %-15s  %s\n", ev.OccurredAt.Format("2006-01-02 15:04:05"), ev.IPAddress, ev.UserAgent)
	}
	return nil
}
