package gateway

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dmitrijs2005/opsdesk/internal/client/models"
	"github.com/dmitrijs2005/opsdesk/internal/client/services"
	"github.com/dmitrijs2005/opsdesk/internal/logging"
)

// fakeBackend implements client.Client behind the real services.
type fakeBackend struct {
	LoginToken string
	LoginErr   error
	Logins     []string

	Incidents    []models.Incident
	IncidentsErr error
	ReplyErr     error
	Replies      map[string]models.IncidentReply
	MarkedRead   []string
	Tokens       []string

	News      []models.News
	CreateRet *models.News
	CreateErr error
	Drafts    []models.NewsDraft

	History    []models.ChatMessage
	HistoryErr error
	HistoryFor string

	Nearest *models.NearestStation
}

func (f *fakeBackend) Login(_ context.Context, username, _, totpCode string) (string, error) {
	f.Logins = append(f.Logins, username+"/"+totpCode)
	return f.LoginToken, f.LoginErr
}

func (f *fakeBackend) ListIncidents(_ context.Context, token string) ([]models.Incident, error) {
	f.Tokens = append(f.Tokens, token)
	if f.IncidentsErr != nil {
		return nil, f.IncidentsErr
	}
	out := make([]models.Incident, len(f.Incidents))
	copy(out, f.Incidents)
	return out, nil
}

func (f *fakeBackend) ReplyIncident(_ context.Context, token, id string, reply models.IncidentReply) error {
	f.Tokens = append(f.Tokens, token)
	if f.ReplyErr != nil {
		return f.ReplyErr
	}
	if f.Replies == nil {
		f.Replies = map[string]models.IncidentReply{}
	}
	f.Replies[id] = reply
	return nil
}

func (f *fakeBackend) MarkIncidentRead(_ context.Context, token, id string) error {
	f.Tokens = append(f.Tokens, token)
	f.MarkedRead = append(f.MarkedRead, id)
	return nil
}

func (f *fakeBackend) ListNews(context.Context) ([]models.News, error) {
	return f.News, nil
}

func (f *fakeBackend) CreateNews(_ context.Context, token string, draft models.NewsDraft) (*models.News, error) {
	f.Tokens = append(f.Tokens, token)
	f.Drafts = append(f.Drafts, draft)
	return f.CreateRet, f.CreateErr
}

func (f *fakeBackend) ChatHistory(_ context.Context, token, userID string) ([]models.ChatMessage, error) {
	f.Tokens = append(f.Tokens, token)
	f.HistoryFor = userID
	return f.History, f.HistoryErr
}

func (f *fakeBackend) NearestStation(context.Context, float64, float64) (*models.NearestStation, error) {
	return f.Nearest, nil
}

const testOperator = "203f9207-4541-4e5b-a8ba-1c2f4b7a9d11"

func newTestRouter(t *testing.T, be *fakeBackend) http.Handler {
	t.Helper()
	h := NewHandler(be,
		services.NewIncidentService(be),
		services.NewNewsService(be),
		services.NewHistoryService(be),
		Options{
			ChatURL:            "ws://chat.local/ws/chat",
			SessionMaxAge:      7 * 24 * time.Hour,
			Secure:             true,
			FallbackOperatorID: testOperator,
		},
		logging.Discard(),
	)
	return NewRouter(h, logging.Discard())
}

func do(h http.Handler, req *http.Request, token string) *httptest.ResponseRecorder {
	if token != "" {
		req.AddCookie(&http.Cookie{Name: CookieName, Value: token})
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func sessionCookie(rec *httptest.ResponseRecorder) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == CookieName {
			return c
		}
	}
	return nil
}

func ptr[T any](v T) *T { return &v }
