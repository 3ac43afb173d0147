package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/dmitrymomot/garagedesk/pkg/notifications"
	"github.com/dmitrymomot/garagedesk/pkg/provider"
)

const timeLayout = "Jan 02 15:04"

var (
	headerStyle  = lipgloss.NewStyle().Bold(true)
	unreadStyle  = lipgloss.NewStyle().Bold(true)
	readStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#f87171"))
	liveStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#4ade80"))
	offlineStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#D4A017"))
	toastStyle   = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#4ade80")).
			Padding(0, 1)
)

func renderSnapshot(s provider.Snapshot, filter provider.ReadFilter) string {
	var b strings.Builder

	status := offlineStyle.Render(string(s.State))
	if s.IsConnected {
		status = liveStyle.Render(string(s.State))
	}
	fmt.Fprintf(&b, "%s  %d unread  %s\n",
		headerStyle.Render("notifications for "+s.UserID),
		s.UnreadCount,
		status,
	)
	if s.Loading {
		b.WriteString("loading...\n")
	}
	if s.Error != "" {
		b.WriteString(errorStyle.Render(s.Error) + "\n")
	}
	if s.MutationError != "" {
		b.WriteString(errorStyle.Render(s.MutationError) + "\n")
	}
	if s.Toast != nil {
		b.WriteString(toastStyle.Render(toastText(*s.Toast)) + "\n")
	}

	list := s.Filter(filter)
	if len(list) == 0 && !s.Loading {
		b.WriteString(readStyle.Render("no "+filterLabel(filter)+"notifications") + "\n")
	}
	for _, n := range list {
		b.WriteString(renderLine(n) + "\n")
	}
	b.WriteString("\n")
	return b.String()
}

func renderList(w io.Writer, list []notifications.Notification) error {
	for _, n := range list {
		if _, err := fmt.Fprintln(w, renderLine(n)); err != nil {
			return err
		}
	}
	return nil
}

func renderLine(n notifications.Notification) string {
	marker, style := "•", unreadStyle
	if n.Read {
		marker, style = " ", readStyle
	}
	line := fmt.Sprintf("%s %-11s %s  %s", marker, n.Type, n.CreatedAt.Local().Format(timeLayout), n.Title)
	if n.Progress != nil {
		line += fmt.Sprintf(" (%d%%)", *n.Progress)
	}
	return style.Render(line) + readStyle.Render("  "+n.ID)
}

func toastText(n notifications.Notification) string {
	if n.Message == "" {
		return n.Title
	}
	return n.Title + "\n" + n.Message
}

func filterLabel(f provider.ReadFilter) string {
	if f == provider.FilterAll {
		return ""
	}
	return f.String() + " "
}

