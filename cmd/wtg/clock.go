package main

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/fentz26/worldtime/internal/anchor"
	"github.com/fentz26/worldtime/internal/turntime"
)

var clockCmd = &cobra.Command{
	Use:   "clock",
	Short: "Derive the current date and time from a start and a turn time marker",
	Long: `Works offline. The marker may be bare (00y00m01d02h00n00s) or embedded in
text; the last [[...]] marker in the text wins.`,
	RunE: runClock,
}

var (
	clockDate   string
	clockTime   string
	clockMarker string
)

var (
	clockBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#7C3AED")).
			Padding(0, 1)

	clockLabelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#6B7280")).
			Width(10)

	clockValueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F9FAFB")).
			Bold(true)
)

func init() {
	clockCmd.Flags().StringVar(&clockDate, "date", "", "Starting date (mm/dd/yyyy)")
	clockCmd.Flags().StringVar(&clockTime, "time", "Unknown", "Starting time")
	clockCmd.Flags().StringVar(&clockMarker, "marker", "", "Turn time marker or text containing one")
	clockCmd.MarkFlagRequired("date")
}

func runClock(cmd *cobra.Command, args []string) error {
	date, err := anchor.ParseDate(clockDate)
	if err != nil {
		return err
	}
	a := anchor.Anchor{Date: date, Time: anchor.NormalizeTime(clockTime)}

	var elapsed turntime.Duration
	if clockMarker != "" {
		d, ok := turntime.FindLast(clockMarker)
		if !ok {
			d, ok = turntime.Parse(clockMarker)
		}
		if !ok {
			return fmt.Errorf("no turn time marker in %q", clockMarker)
		}
		elapsed = d
	}

	now := anchor.Derive(a, elapsed)
	fmt.Println(clockBoxStyle.Render(lipgloss.JoinVertical(lipgloss.Left,
		row("Start", a.Date+" "+a.Time),
		row("Elapsed", elapsed.String()),
		row("Current", now.String()),
	)))
	return nil
}

func row(label, value string) string {
	return lipgloss.JoinHorizontal(lipgloss.Top, clockLabelStyle.Render(label), clockValueStyle.Render(value))
}
