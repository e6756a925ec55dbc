package cli

import (
	"fmt"
	"strings"

	"github.com/dmitrijs2005/opsdesk/internal/chat"
	"github.com/dmitrijs2005/opsdesk/internal/client/models"
	"github.com/dmitrijs2005/opsdesk/internal/textx"
)

const (
	timeLayout   = "02.01.2006 15:04"
	previewRunes = 40
)

// Everything here renders text that came from citizens or the backend, so
// it goes through textx.Plain first.

func formatUser(u chat.User, active bool) string {
	marker := " "
	if active {
		marker = "*"
	}
	online := ""
	if u.Online {
		online = " online"
	}
	unread := ""
	if u.Unread > 0 {
		unread = fmt.Sprintf(" [%d]", u.Unread)
	}
	return fmt.Sprintf("%s %s  %s%s%s  %s", marker, u.ID, textx.Plain(u.Name), online, unread,
		textx.Truncate(textx.Plain(u.LastMessage), previewRunes))
}

func formatMessage(m chat.Message) string {
	who := "<"
	if m.Role == chat.RoleOperator {
		who = ">"
	}
	return fmt.Sprintf("%s %s %s (%s)", m.Time.Local().Format(timeLayout), who, textx.Plain(m.Body), m.Status)
}

func formatIncidentLine(inc models.Incident) string {
	flags := ""
	if inc.Unread {
		flags += "*"
	}
	if len(inc.MediaURLs) > 0 {
		flags += "m"
	}
	if inc.HasLocation() {
		flags += "@"
	}
	return fmt.Sprintf("%-3s %s  %s  %s  %s  [%s]", flags, inc.ID, inc.CreatedAt.Local().Format(timeLayout),
		textx.Plain(inc.SenderName), textx.Truncate(textx.Plain(inc.Subject), previewRunes), strings.Join(inc.Tags, ", "))
}

func formatIncident(inc models.Incident) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s  %s\n", inc.ID, inc.CreatedAt.Local().Format(timeLayout))
	fmt.Fprintf(&b, "From:    %s\n", textx.Plain(inc.SenderName))
	fmt.Fprintf(&b, "Subject: %s\n", textx.Plain(inc.Subject))
	if len(inc.Tags) > 0 {
		fmt.Fprintf(&b, "Tags:    %s\n", strings.Join(inc.Tags, ", "))
	}
	if inc.HasLocation() {
		fmt.Fprintf(&b, "Location: %.5f, %.5f\n", *inc.Latitude, *inc.Longitude)
	}
	for _, u := range inc.MediaURLs {
		fmt.Fprintf(&b, "Media:   %s\n", u)
	}
	b.WriteString("\n")
	b.WriteString(textx.Plain(inc.Excerpt))
	for _, m := range inc.Messages {
		fmt.Fprintf(&b, "\n%s  %s", m.CreatedAt.Local().Format(timeLayout), textx.Plain(m.Message))
	}
	return b.String()
}

func formatStation(st *models.NearestStation) string {
	return fmt.Sprintf("%s\n%s\n%s\n%.1f km", st.Station.Name, st.Station.Address, st.Station.Phone, st.DistanceKm)
}

func formatNews(n models.News) string {
	s := fmt.Sprintf("%s  %s\n%s", n.CreatedAt.Local().Format(timeLayout), textx.Plain(n.Title), textx.Plain(n.Content))
	if n.ImageURL != "" {
		s += "\nImage: " + n.ImageURL
	}
	return s
}
