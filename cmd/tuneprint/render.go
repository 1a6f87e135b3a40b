package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/mattn/go-isatty"

	"tuneprint/internal/acoustid"
)

func shouldColorize(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

func outcomeColors(outcome string) text.Colors {
	switch outcome {
	case acoustid.OutcomeMatched.String():
		return text.Colors{text.FgGreen}
	case acoustid.OutcomeNoMatch.String(), outcomeCancelled:
		return text.Colors{text.FgYellow}
	default:
		return text.Colors{text.FgRed}
	}
}

func colorOutcome(outcome string, colorize bool) string {
	if !colorize {
		return outcome
	}
	return outcomeColors(outcome).Sprint(outcome)
}

// renderReports builds the analyze table. With all set every candidate gets
// a row; otherwise only the best one per file.
func renderReports(reports []fileReport, all, colorize bool) string {
	headers := []string{"File", "Outcome", "Score", "Title", "Artist", "Recording", "AcoustID"}
	aligns := []columnAlignment{alignLeft, alignLeft, alignRight}
	rows := make([][]string, 0, len(reports))
	for _, report := range reports {
		name := filepath.Base(report.Path)
		outcome := colorOutcome(report.Outcome, colorize)
		if len(report.Matches) == 0 {
			rows = append(rows, []string{name, outcome, "", "", "", "", truncate(report.Error, 60)})
			continue
		}
		matches := report.Matches
		if !all {
			matches = matches[:1]
		}
		for i, match := range matches {
			fileCell, outcomeCell := name, outcome
			if i > 0 {
				fileCell, outcomeCell = "", ""
			}
			rows = append(rows, []string{
				fileCell,
				outcomeCell,
				fmt.Sprintf("%.1f", match.Score),
				truncate(match.Title, 40),
				truncate(match.ArtistCreditString(), 30),
				match.ID,
				match.AcoustID,
			})
		}
	}
	return renderTable(headers, rows, aligns)
}

func truncate(value string, limit int) string {
	value = strings.TrimSpace(value)
	runes := []rune(value)
	if limit <= 0 || len(runes) <= limit {
		return value
	}
	if limit <= 3 {
		return string(runes[:limit])
	}
	return string(runes[:limit-3]) + "..."
}
