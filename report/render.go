package report

import (
	"fmt"
	"strings"

	"tilbot/types"
)

// Render formats a run report as a boxed terminal summary
func Render(r types.RunReport) string {
	var b strings.Builder

	b.WriteString(TitleStyle.Render("🎬 TIL Shorts run " + shortID(r.RunID)))
	b.WriteString("\n")

	duration := r.FinishedAt.Sub(r.StartedAt).Round(1e9)
	stats := fmt.Sprintf("📊 Fetched: %d | Skipped: %d | Succeeded: %d | Failed: %d | Took: %s",
		r.Fetched, r.Skipped, r.Succeeded, r.Failed, duration)
	b.WriteString(InfoStyle.Render(stats))
	b.WriteString("\n")
	if r.Succeeded > 0 {
		b.WriteString(HighlightStyle.Render(fmt.Sprintf("%d new video(s)", r.Succeeded)))
		b.WriteString("\n")
	}

	if len(r.Outcomes) > 0 {
		b.WriteString("\n")
		for _, o := range r.Outcomes {
			b.WriteString(outcomeLine(o))
			b.WriteString("\n")
		}
	}

	if r.Error != "" {
		b.WriteString("\n")
		b.WriteString(ErrorStyle.Render("❌ " + r.Error))
		b.WriteString("\n")
	} else if r.Fetched == 0 {
		b.WriteString("\n")
		b.WriteString(WarningStyle.Render("No suitable posts found"))
		b.WriteString("\n")
	}

	return BoxStyle.Render(strings.TrimRight(b.String(), "\n"))
}

func outcomeLine(o types.PostOutcome) string {
	title := truncate(o.Title, 60)
	switch o.Status {
	case types.OutcomePublished:
		line := fmt.Sprintf("✅ %s  %s  %s", o.PostID, title, o.VideoURL)
		if o.Error != "" {
			return WarningStyle.Render(line + "  (not recorded: " + o.Error + ")")
		}
		return SuccessStyle.Render(line)
	case types.OutcomeProduced:
		return InfoStyle.Render(fmt.Sprintf("📦 %s  %s  (not published)", o.PostID, title))
	default:
		return ErrorStyle.Render(fmt.Sprintf("❌ %s  %s  [%s] %s", o.PostID, title, o.Stage, o.Error))
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
