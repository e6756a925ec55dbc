package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/opsdesk/internal/client/services"
)

// Incidents refreshes the inbox and prints it. Filters:
//
//	incidents              all
//	incidents unread       unread only
//	incidents tag <tag>    with the given tag
func (a *App) Incidents(ctx context.Context, args []string) error {
	var f services.Filter
	switch {
	case len(args) == 0, args[0] == "all":
	case args[0] == "unread":
		f.UnreadOnly = true
	case args[0] == "tag" && len(args) > 1:
		f.Tag = strings.Join(args[1:], " ")
	default:
		printlnFn("Usage: incidents [all|unread|tag <tag>]")
		return nil
	}

	if err := a.incidentService.Refresh(ctx, a.session); err != nil {
		a.handleErr(ctx, "Could not load incidents", err)
		return err
	}

	items := a.incidentService.List(f)
	printlnFn(fmt.Sprintf("%d incidents", len(items)))
	for _, inc := range items {
		printlnFn(formatIncidentLine(inc))
	}
	if f == (services.Filter{}) {
		if tags := a.incidentService.Tags(); len(tags) > 0 {
			printlnFn("Tags:", strings.Join(tags, ", "))
		}
	}
	return nil
}

// Incident prints one incident and marks it read on the backend.
func (a *App) Incident(ctx context.Context, args []string) error {
	if len(args) == 0 {
		printlnFn("Usage: show <incident id>")
		return nil
	}
	id := args[0]

	inc, ok := a.incidentService.Get(id)
	if !ok {
		printlnFn("Incident not found:", id)
		return nil
	}
	printlnFn(formatIncident(inc))

	if inc.Unread {
		if err := a.incidentService.MarkRead(ctx, a.session, id); err != nil {
			a.handleErr(ctx, "Could not mark incident read", err)
			return err
		}
	}
	return nil
}

// Reply answers an incident: reply <id> <text...>.
func (a *App) Reply(ctx context.Context, args []string) error {
	if len(args) < 2 {
		printlnFn("Usage: reply <incident id> <text>")
		return nil
	}
	if err := a.incidentService.Reply(ctx, a.session, args[0], strings.Join(args[1:], " ")); err != nil {
		a.handleErr(ctx, "Reply not sent", err)
		return err
	}
	printlnFn("Reply sent")
	return nil
}

// MarkUnread flags an incident unread again, locally.
func (a *App) MarkUnread(ctx context.Context, args []string) error {
	if len(args) == 0 {
		printlnFn("Usage: unread <incident id>")
		return nil
	}
	if err := a.incidentService.MarkUnread(args[0]); err != nil {
		a.handleErr(ctx, "Cannot mark unread", err)
		return err
	}
	printlnFn("Marked unread")
	return nil
}

// Station prints the police station nearest to an incident.
func (a *App) Station(ctx context.Context, args []string) error {
	if len(args) == 0 {
		printlnFn("Usage: station <incident id>")
		return nil
	}
	st, err := a.incidentService.NearestStation(ctx, args[0])
	if err != nil {
		a.handleErr(ctx, "Nearest station unavailable", err)
		return err
	}
	printlnFn(formatStation(st))
	return nil
}
