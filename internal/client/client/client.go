package client

import (
	"context"

	"github.com/dmitrijs2005/opsdesk/internal/client/models"
)

// Client is the backend API surface used by the console and the gateway.
// Authenticated calls take the bearer token explicitly.
type Client interface {
	Login(ctx context.Context, username, password, totpCode string) (string, error)
	ListIncidents(ctx context.Context, token string) ([]models.Incident, error)
	ReplyIncident(ctx context.Context, token, incidentID string, reply models.IncidentReply) error
	MarkIncidentRead(ctx context.Context, token, incidentID string) error
	ListNews(ctx context.Context) ([]models.News, error)
	CreateNews(ctx context.Context, token string, draft models.NewsDraft) (*models.News, error)
	ChatHistory(ctx context.Context, token, userID string) ([]models.ChatMessage, error)
	NearestStation(ctx context.Context, latitude, longitude float64) (*models.NearestStation, error)
}
