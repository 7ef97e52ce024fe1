package device

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"time"

	"nathanbeddoewebdev/devsweep/internal/domain"
	"nathanbeddoewebdev/devsweep/internal/policy"
	"nathanbeddoewebdev/devsweep/internal/tui/components"
	"nathanbeddoewebdev/devsweep/internal/tui/styles"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
)

const (
	statsChartWidth  = 60
	statsChartHeight = 8

	// maxOSBuckets caps the operating-system chart; smaller groups fold
	// into "other" so the bars stay readable.
	maxOSBuckets = 5
)

func StatsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show the age and OS distribution of stale devices",
		Long: `Query the directory for stale devices and chart how long ago they last
signed in and which operating systems they run.

Examples:
  # Distribution of the default 90-day stale set
  devsweep device stats --provider entra

  # JSON buckets for scripting
  devsweep device stats -o json`,
		Run: runStats,
	}

	addSweepFlags(cmd)
	cmd.Flags().StringP("output", "o", "table", "Output format: table or json")

	return cmd
}

// statBucket is one labelled count in a distribution.
type statBucket struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

// deviceStats is the JSON shape of the stats output.
type deviceStats struct {
	Threshold        string       `json:"threshold"`
	Total            int          `json:"total"`
	SignInAge        []statBucket `json:"sign_in_age"`
	OperatingSystems []statBucket `json:"operating_systems"`
}

func runStats(cmd *cobra.Command, args []string) {
	cfg, err := sweepConfig(cmd)
	if err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
		return
	}

	svc, err := newCollector(cmd)
	if err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
		return
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	devices, threshold, err := svc.Collect(ctx, cfg)
	if err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
		return
	}

	if len(devices) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No devices found.")
		return
	}

	stats := deviceStats{
		Threshold:        policy.FormatInstant(threshold),
		Total:            len(devices),
		SignInAge:        signInBuckets(devices, time.Now()),
		OperatingSystems: osBuckets(devices, maxOSBuckets),
	}

	output, _ := cmd.Flags().GetString("output")
	switch output {
	case "json":
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		enc.Encode(stats)
	default:
		printStatsCharts(cmd, stats)
	}
}

// printStatsCharts renders both distributions as bar charts. lipgloss
// degrades to plain text when stdout is not a terminal, so the command is
// safe to pipe.
func printStatsCharts(cmd *cobra.Command, stats deviceStats) {
	out := cmd.OutOrStdout()

	fmt.Fprintf(out, "%d stale device(s), last sign-in on or before %s\n\n", stats.Total, stats.Threshold)

	ageStyles := []lipgloss.Style{
		lipgloss.NewStyle().Foreground(styles.Blue),
		lipgloss.NewStyle().Foreground(styles.Yellow),
		lipgloss.NewStyle().Foreground(styles.Red),
		lipgloss.NewStyle().Foreground(styles.Gray),
	}
	fmt.Fprintln(out, components.DistributionChart("Last sign-in age", chartBars(stats.SignInAge, ageStyles), statsChartWidth, statsChartHeight))
	fmt.Fprintln(out)

	osStyles := []lipgloss.Style{
		lipgloss.NewStyle().Foreground(styles.Blue),
		lipgloss.NewStyle().Foreground(styles.Green),
		lipgloss.NewStyle().Foreground(styles.Yellow),
		lipgloss.NewStyle().Foreground(styles.Red),
		lipgloss.NewStyle().Foreground(styles.DimBlue),
		lipgloss.NewStyle().Foreground(styles.Gray),
	}
	fmt.Fprintln(out, components.DistributionChart("Operating systems", chartBars(stats.OperatingSystems, osStyles), statsChartWidth, statsChartHeight))
}

// chartBars converts buckets to chart bars, cycling through the palette.
// Zero-count buckets are dropped so the chart only shows real groups.
func chartBars(buckets []statBucket, palette []lipgloss.Style) []components.CountBar {
	bars := make([]components.CountBar, 0, len(buckets))
	for i, b := range buckets {
		if b.Count == 0 {
			continue
		}
		bars = append(bars, components.CountBar{
			Label: b.Label,
			Count: float64(b.Count),
			Style: palette[i%len(palette)],
		})
	}
	return bars
}

// signInBuckets groups devices by how long ago they last signed in. The
// bands are fixed rather than derived from the window so runs with
// different --days-back values stay comparable.
func signInBuckets(devices []domain.Device, now time.Time) []statBucket {
	buckets := []statBucket{
		{Label: "under 6 months"},
		{Label: "6-12 months"},
		{Label: "over 1 year"},
		{Label: "never"},
	}
	for _, d := range devices {
		age, ok := d.SignInAge(now)
		switch {
		case !ok:
			buckets[3].Count++
		case age < 180*24*time.Hour:
			buckets[0].Count++
		case age < 365*24*time.Hour:
			buckets[1].Count++
		default:
			buckets[2].Count++
		}
	}
	return buckets
}

// osBuckets counts devices per operating system, largest first, folding
// everything past keep into "other".
func osBuckets(devices []domain.Device, keep int) []statBucket {
	counts := map[string]int{}
	for _, d := range devices {
		name := d.OperatingSystem
		if name == "" {
			name = "unknown"
		}
		counts[name]++
	}

	out := make([]statBucket, 0, len(counts))
	for name, n := range counts {
		out = append(out, statBucket{Label: name, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Label < out[j].Label
	})

	if len(out) > keep {
		other := statBucket{Label: "other"}
		for _, b := range out[keep:] {
			other.Count += b.Count
		}
		out = append(out[:keep], other)
	}
	return out
}
