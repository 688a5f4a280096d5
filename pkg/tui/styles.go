package tui

import "github.com/charmbracelet/lipgloss"

var (
	accent = lipgloss.Color("#3ECF8E")
	muted  = lipgloss.Color("243")
	danger = lipgloss.Color("#E5484D")
	warn   = lipgloss.Color("#F5A524")

	appStyle     = lipgloss.NewStyle().Padding(1, 2)
	headerStyle  = lipgloss.NewStyle().Bold(true).Foreground(accent)
	labelStyle   = lipgloss.NewStyle().Foreground(muted)
	helpStyle    = lipgloss.NewStyle().Foreground(muted).MarginTop(1)
	buttonStyle  = lipgloss.NewStyle().Padding(0, 2).Foreground(lipgloss.Color("0")).Background(accent)
	disabledBtn  = buttonStyle.Background(muted)
	titleStyle   = lipgloss.NewStyle().Bold(true)
	contentStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("250"))
	dateStyle    = lipgloss.NewStyle().Foreground(muted).Italic(true)
	cursorStyle  = lipgloss.NewStyle().Foreground(accent).Bold(true)
	itemStyle    = lipgloss.NewStyle().PaddingLeft(2).BorderStyle(lipgloss.NormalBorder()).BorderLeft(true).BorderForeground(muted)
	selectedItem = itemStyle.BorderForeground(accent)

	noticeStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			Padding(1, 2).
			Width(50)
	offlineStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(danger).
			Padding(1, 2)
)

func noticeColor(kind string) lipgloss.Color {
	switch kind {
	case "success":
		return accent
	case "validation":
		return warn
	default:
		return danger
	}
}
