package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/opsdesk/internal/client/client"
	"github.com/dmitrijs2005/opsdesk/internal/client/models"
	"github.com/dmitrijs2005/opsdesk/internal/client/session"
	"github.com/dmitrijs2005/opsdesk/internal/filex"
)

type NewsService interface {
	List(ctx context.Context) ([]models.News, error)
	Publish(ctx context.Context, sess *session.Session, draft models.NewsDraft) (*models.News, error)
}

type newsService struct {
	client client.Client
}

func NewNewsService(client client.Client) NewsService {
	return &newsService{client: client}
}

func (s *newsService) List(ctx context.Context) ([]models.News, error) {
	items, err := s.client.ListNews(ctx)
	if err != nil {
		return nil, fmt.Errorf("list news: %w", err)
	}
	return items, nil
}

// Publish validates draft and posts it. Title and content are required; the
// image, if any, must be an image no larger than filex.MaxAttachmentSize.
func (s *newsService) Publish(ctx context.Context, sess *session.Session, draft models.NewsDraft) (*models.News, error) {
	draft.Title = strings.TrimSpace(draft.Title)
	draft.Content = strings.TrimSpace(draft.Content)
	if err := validateDraft(draft); err != nil {
		return nil, err
	}

	n, err := s.client.CreateNews(ctx, sess.Token, draft)
	if err != nil {
		return nil, fmt.Errorf("publish news: %w", err)
	}
	return n, nil
}

func validateDraft(d models.NewsDraft) error {
	if d.Title == "" || d.Content == "" {
		return fmt.Errorf("%w: title and content are required", client.ErrValidation)
	}
	if d.Image == nil {
		return nil
	}
	if len(d.Image.Data) == 0 {
		return fmt.Errorf("%w: image is empty", client.ErrValidation)
	}
	if len(d.Image.Data) > filex.MaxAttachmentSize {
		return fmt.Errorf("%w: %w", client.ErrValidation, filex.ErrAttachmentTooLarge)
	}
	if !strings.HasPrefix(d.Image.ContentType, "image/") {
		return fmt.Errorf("%w: %w", client.ErrValidation, filex.ErrNotAnImage)
	}
	return nil
}

// LoadImage reads an image file from disk for a news draft.
func LoadImage(path string) (*models.Image, error) {
	a, err := filex.ReadImage(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", client.ErrValidation, err)
	}
	return &models.Image{Name: a.Name, ContentType: a.ContentType, Data: a.Data}, nil
}
