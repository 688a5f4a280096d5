package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/aretw0/notekeep/pkg/core"
)

// renderNotice draws a notice as a modal box; it blocks input until dismissed.
func renderNotice(n *core.Notice) string {
	if n == nil {
		return ""
	}
	c := noticeColor(string(n.Kind))
	body := lipgloss.JoinVertical(lipgloss.Left,
		lipgloss.NewStyle().Bold(true).Foreground(c).Render(n.Title),
		"",
		n.Message,
		helpStyle.Render("enter: OK"),
	)
	return noticeStyle.BorderForeground(c).Render(body)
}
