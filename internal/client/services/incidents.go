package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/dmitrijs2005/opsdesk/internal/client/client"
	"github.com/dmitrijs2005/opsdesk/internal/client/models"
	"github.com/dmitrijs2005/opsdesk/internal/client/session"
)

var ErrNoLocation = errors.New("incident has no location")

// Filter selects incidents from the inbox. The zero value selects all.
type Filter struct {
	UnreadOnly bool
	Tag        string
}

func (f Filter) match(i *models.Incident) bool {
	if f.UnreadOnly && !i.Unread {
		return false
	}
	if f.Tag != "" && !i.HasTag(f.Tag) {
		return false
	}
	return true
}

// IncidentService is the incident inbox. Refresh loads the list from the
// backend; the other reads work on the last loaded copy, which replies and
// read marks keep up to date.
type IncidentService interface {
	Refresh(ctx context.Context, sess *session.Session) error
	List(f Filter) []models.Incident
	Get(id string) (models.Incident, bool)
	Tags() []string
	Reply(ctx context.Context, sess *session.Session, id, message string) error
	MarkRead(ctx context.Context, sess *session.Session, id string) error
	MarkUnread(id string) error
	NearestStation(ctx context.Context, id string) (*models.NearestStation, error)
}

type incidentService struct {
	client client.Client

	mu        sync.RWMutex
	incidents []models.Incident
}

func NewIncidentService(client client.Client) IncidentService {
	return &incidentService{client: client}
}

func (s *incidentService) Refresh(ctx context.Context, sess *session.Session) error {
	items, err := s.client.ListIncidents(ctx, sess.Token)
	if err != nil {
		return fmt.Errorf("list incidents: %w", err)
	}
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].CreatedAt.After(items[j].CreatedAt)
	})

	s.mu.Lock()
	s.incidents = items
	s.mu.Unlock()
	return nil
}

func (s *incidentService) List(f Filter) []models.Incident {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Incident, 0, len(s.incidents))
	for i := range s.incidents {
		if f.match(&s.incidents[i]) {
			out = append(out, s.incidents[i])
		}
	}
	return out
}

func (s *incidentService) Get(id string) (models.Incident, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := s.indexLocked(id); i >= 0 {
		return s.incidents[i], true
	}
	return models.Incident{}, false
}

// Tags lists every tag present in the inbox, sorted.
func (s *incidentService) Tags() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := map[string]struct{}{}
	for _, inc := range s.incidents {
		for _, t := range inc.Tags {
			seen[t] = struct{}{}
		}
	}
	tags := make([]string, 0, len(seen))
	for t := range seen {
		tags = append(tags, t)
	}
	sort.Strings(tags)
	return tags
}

// Reply sends message to the incident's reporter and marks the local copy
// resolved.
func (s *incidentService) Reply(ctx context.Context, sess *session.Session, id, message string) error {
	message = strings.TrimSpace(message)
	if message == "" {
		return fmt.Errorf("%w: reply is empty", client.ErrValidation)
	}

	reply := models.IncidentReply{Message: message, SenderID: sess.OperatorID}
	if err := s.client.ReplyIncident(ctx, sess.Token, id, reply); err != nil {
		return fmt.Errorf("reply to incident %s: %w", id, err)
	}

	s.update(id, func(inc *models.Incident) { inc.MarkResolved() })
	return nil
}

func (s *incidentService) MarkRead(ctx context.Context, sess *session.Session, id string) error {
	if err := s.client.MarkIncidentRead(ctx, sess.Token, id); err != nil {
		return fmt.Errorf("mark incident %s read: %w", id, err)
	}
	s.update(id, func(inc *models.Incident) { inc.Unread = false })
	return nil
}

// MarkUnread only changes the local copy; the backend has no endpoint for it.
func (s *incidentService) MarkUnread(id string) error {
	if !s.update(id, func(inc *models.Incident) { inc.Unread = true }) {
		return fmt.Errorf("incident %s: %w", id, client.ErrNotFound)
	}
	return nil
}

// NearestStation looks up the police station closest to where the incident
// was reported.
func (s *incidentService) NearestStation(ctx context.Context, id string) (*models.NearestStation, error) {
	inc, ok := s.Get(id)
	if !ok {
		return nil, fmt.Errorf("incident %s: %w", id, client.ErrNotFound)
	}
	if !inc.HasLocation() {
		return nil, ErrNoLocation
	}
	return s.client.NearestStation(ctx, *inc.Latitude, *inc.Longitude)
}

func (s *incidentService) update(id string, fn func(inc *models.Incident)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexLocked(id)
	if i < 0 {
		return false
	}
	fn(&s.incidents[i])
	return true
}

func (s *incidentService) indexLocked(id string) int {
	for i := range s.incidents {
		if s.incidents[i].ID == id {
			return i
		}
	}
	return -1
}
