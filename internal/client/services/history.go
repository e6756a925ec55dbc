package services

import (
	"context"
	"fmt"
	"sort"

	"github.com/dmitrijs2005/opsdesk/internal/client/client"
	"github.com/dmitrijs2005/opsdesk/internal/client/models"
	"github.com/dmitrijs2005/opsdesk/internal/client/session"
)

type HistoryService interface {
	// Load returns the operator's stored chat messages, oldest first.
	Load(ctx context.Context, sess *session.Session) ([]models.ChatMessage, error)
}

type historyService struct {
	client client.Client
}

func NewHistoryService(client client.Client) HistoryService {
	return &historyService{client: client}
}

func (s *historyService) Load(ctx context.Context, sess *session.Session) ([]models.ChatMessage, error) {
	msgs, err := s.client.ChatHistory(ctx, sess.Token, sess.OperatorID)
	if err != nil {
		return nil, fmt.Errorf("load chat history: %w", err)
	}
	sort.SliceStable(msgs, func(i, j int) bool {
		return msgs[i].CreatedAt.Before(msgs[j].CreatedAt)
	})
	return msgs, nil
}
