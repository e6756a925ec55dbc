package services

import (
	"context"

	"github.com/dmitrijs2005/opsdesk/internal/client/models"
)

// fakeClient implements client.Client for the service tests. Each call is
// recorded; results come from the *Ret / *Err fields.
type fakeClient struct {
	LoginRet   string
	LoginErr   error
	LoginCalls []loginCall

	Incidents      []models.Incident
	IncidentsErr   error
	LastListToken  string
	ReplyErr       error
	Replies        map[string]models.IncidentReply
	LastReplyToken string
	MarkReadErr    error
	MarkedRead     []string

	News       []models.News
	NewsErr    error
	CreateRet  *models.News
	CreateErr  error
	Drafts     []models.NewsDraft
	LastNewsTk string

	History        []models.ChatMessage
	HistoryErr     error
	LastHistoryFor string

	NearestRet   *models.NearestStation
	NearestErr   error
	NearestCalls [][2]float64
}

type loginCall struct {
	Username, Password, TOTP string
}

func (f *fakeClient) Login(_ context.Context, username, password, totpCode string) (string, error) {
	f.LoginCalls = append(f.LoginCalls, loginCall{username, password, totpCode})
	return f.LoginRet, f.LoginErr
}

func (f *fakeClient) ListIncidents(_ context.Context, token string) ([]models.Incident, error) {
	f.LastListToken = token
	if f.IncidentsErr != nil {
		return nil, f.IncidentsErr
	}
	out := make([]models.Incident, len(f.Incidents))
	copy(out, f.Incidents)
	return out, nil
}

func (f *fakeClient) ReplyIncident(_ context.Context, token, incidentID string, reply models.IncidentReply) error {
	f.LastReplyToken = token
	if f.ReplyErr != nil {
		return f.ReplyErr
	}
	if f.Replies == nil {
		f.Replies = map[string]models.IncidentReply{}
	}
	f.Replies[incidentID] = reply
	return nil
}

func (f *fakeClient) MarkIncidentRead(_ context.Context, _ string, incidentID string) error {
	if f.MarkReadErr != nil {
		return f.MarkReadErr
	}
	f.MarkedRead = append(f.MarkedRead, incidentID)
	return nil
}

func (f *fakeClient) ListNews(context.Context) ([]models.News, error) {
	return f.News, f.NewsErr
}

func (f *fakeClient) CreateNews(_ context.Context, token string, draft models.NewsDraft) (*models.News, error) {
	f.LastNewsTk = token
	f.Drafts = append(f.Drafts, draft)
	return f.CreateRet, f.CreateErr
}

func (f *fakeClient) ChatHistory(_ context.Context, _ string, userID string) ([]models.ChatMessage, error) {
	f.LastHistoryFor = userID
	return f.History, f.HistoryErr
}

func (f *fakeClient) NearestStation(_ context.Context, latitude, longitude float64) (*models.NearestStation, error) {
	f.NearestCalls = append(f.NearestCalls, [2]float64{latitude, longitude})
	return f.NearestRet, f.NearestErr
}
