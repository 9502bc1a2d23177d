package cli

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/hollis/nudge/internal/client"
)

// The inspection commands talk to a running daemon rather than opening the
// database directly, so they always see the engine's lazy-expiry view.

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List active recommendations",
	RunE: func(cmd *cobra.Command, args []string) error {
		c := client.New()
		if !c.Healthy() {
			return fmt.Errorf("nudge daemon not reachable, start it with `nudge serve`")
		}
		recs, err := c.Active()
		if err != nil {
			return err
		}
		if len(recs) == 0 {
			fmt.Println("no active recommendations")
			return nil
		}
		for _, r := range recs {
			fmt.Printf("%s  [%s, %s]\n", r.ID, r.Module, r.Confidence)
			fmt.Printf("  %s: %s\n", r.Title, r.Summary)
			fmt.Printf("  %s · expires %s\n", r.EvidenceSummary, humanize.Time(time.UnixMilli(r.ExpiresAt)))
		}
		return nil
	},
}

var (
	swipeDisplacement float64
	swipeExtent       float64
)

var swipeCmd = &cobra.Command{
	Use:   "swipe <recommendation-id>",
	Short: "Forward an end-of-gesture displacement for a recommendation",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		out, err := client.New().Gesture(args[0], swipeDisplacement, swipeExtent)
		if err != nil {
			return err
		}
		switch out.Outcome {
		case "rest":
			fmt.Println("below threshold, card returned to rest")
		case "resolved":
			fmt.Printf("%s: %q\n", out.Recommendation.Status, out.Recommendation.Title)
		default:
			fmt.Println(out.Outcome)
		}
		return nil
	},
}

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Trigger a manual suggestion generation pass",
	RunE: func(cmd *cobra.Command, args []string) error {
		created, err := client.New().Generate()
		if err != nil {
			return err
		}
		fmt.Printf("created %d suggestions\n", created)
		return nil
	},
}

var limitsCmd = &cobra.Command{
	Use:   "limits",
	Short: "Show the decision quota for the current window",
	RunE: func(cmd *cobra.Command, args []string) error {
		lim, err := client.New().Limits()
		if err != nil {
			return err
		}
		fmt.Printf("quota: %d/%d used, %d remaining\n", lim.Used, lim.Total, lim.Remaining)
		fmt.Printf("window refreshes %s\n", lim.Refreshes)
		return nil
	},
}

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent activity log entries",
	RunE: func(cmd *cobra.Command, args []string) error {
		entries, err := client.New().History(historyLimit)
		if err != nil {
			return err
		}
		for _, e := range entries {
			fmt.Printf("%s  [%s] %s\n",
				time.UnixMilli(e.CreatedAt).Format("2006-01-02 15:04"), e.Type, e.Message)
		}
		return nil
	},
}

func init() {
	swipeCmd.Flags().Float64Var(&swipeDisplacement, "displacement", 0, "Signed gesture displacement")
	swipeCmd.Flags().Float64Var(&swipeExtent, "extent", 1.0, "Interaction surface extent")
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "Maximum number of entries")
}
