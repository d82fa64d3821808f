package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// Summary holds the run totals shown when a download finishes.
type Summary struct {
	Galleries         int64
	Downloaded        int64
	Skipped           int64
	Errors            int64
	PasswordProtected []string
	Elapsed           time.Duration
	OutputDir         string
}

var (
	summaryBorder = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("36")).
			Padding(1, 2)

	summaryTitle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("36")).
			Bold(true)

	summaryLabel = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245")).
			Width(22)

	summaryValue = lipgloss.NewStyle().
			Foreground(lipgloss.Color("220")).
			Bold(true)

	summaryWarn = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214"))
)

// PrintSummary prints the end-of-run totals. Quiet mode reduces it to a
// single line; with colors disabled the card is rendered as plain text.
func PrintSummary(s Summary) {
	if quiet {
		fmt.Printf("done: %d downloaded, %d skipped, %d errors\n",
			s.Downloaded, s.Skipped, s.Errors)
		return
	}
	if noColor {
		printPlainSummary(s)
		return
	}

	var b strings.Builder
	b.WriteString(summaryTitle.Render("Download finished"))
	b.WriteString("\n\n")
	for _, row := range summaryRows(s) {
		b.WriteString(summaryLabel.Render(row[0]))
		b.WriteString(summaryValue.Render(row[1]))
		b.WriteString("\n")
	}
	if len(s.PasswordProtected) > 0 {
		b.WriteString("\n")
		b.WriteString(summaryWarn.Render("Password-protected folders skipped:"))
		for _, name := range s.PasswordProtected {
			b.WriteString("\n")
			b.WriteString(summaryWarn.Render("  - " + name))
		}
	}
	fmt.Println(summaryBorder.Render(b.String()))
}

func printPlainSummary(s Summary) {
	fmt.Println("Download finished")
	for _, row := range summaryRows(s) {
		fmt.Printf("  %-22s%s\n", row[0], row[1])
	}
	if len(s.PasswordProtected) > 0 {
		fmt.Println("  Password-protected folders skipped:")
		for _, name := range s.PasswordProtected {
			fmt.Printf("    - %s\n", name)
		}
	}
}

func summaryRows(s Summary) [][2]string {
	return [][2]string{
		{"Galleries processed", fmt.Sprintf("%d", s.Galleries)},
		{"Images downloaded", fmt.Sprintf("%d", s.Downloaded)},
		{"Already present", fmt.Sprintf("%d", s.Skipped)},
		{"Errors", fmt.Sprintf("%d", s.Errors)},
		{"Elapsed", s.Elapsed.Round(time.Second).String()},
		{"Output", s.OutputDir},
	}
}
