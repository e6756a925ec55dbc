package gateway

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/dmitrijs2005/opsdesk/internal/client/client"
	"github.com/dmitrijs2005/opsdesk/internal/client/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func postForm(path string, form url.Values) *http.Request {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestLogin_SetsCookieAndRedirects(t *testing.T) {
	be := &fakeBackend{LoginToken: "tok-1"}
	h := newTestRouter(t, be)

	rec := do(h, postForm("/login", url.Values{"username": {" alice "}, "password": {"pw"}}), "")

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/chat", rec.Header().Get("Location"))
	c := sessionCookie(rec)
	require.NotNil(t, c)
	assert.Equal(t, "tok-1", c.Value)
	assert.True(t, c.HttpOnly)
	assert.True(t, c.Secure)
	assert.Equal(t, 7*24*3600, c.MaxAge)
	assert.Equal(t, []string{"alice/"}, be.Logins)
}

func TestLogin_Failures(t *testing.T) {
	tests := []struct {
		name    string
		form    url.Values
		err     error
		code    int
		totp    bool
		backend bool
	}{
		{name: "missing password", form: url.Values{"username": {"alice"}}, code: http.StatusBadRequest},
		{name: "bad credentials", form: url.Values{"username": {"alice"}, "password": {"x"}},
			err: client.ErrInvalidCredentials, code: http.StatusUnauthorized, backend: true},
		{name: "second factor required", form: url.Values{"username": {"alice"}, "password": {"x"}},
			err: client.ErrTOTPRequired, code: http.StatusUnauthorized, totp: true, backend: true},
		{name: "backend down", form: url.Values{"username": {"alice"}, "password": {"x"}},
			err: fmt.Errorf("login: %w", client.ErrUnavailable), code: http.StatusServiceUnavailable, backend: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			be := &fakeBackend{LoginErr: tt.err}
			rec := do(newTestRouter(t, be), postForm("/login", tt.form), "")

			assert.Equal(t, tt.code, rec.Code)
			assert.Nil(t, sessionCookie(rec))
			assert.Equal(t, tt.backend, len(be.Logins) == 1)

			resp := decode[errorResponse](t, rec)
			assert.Equal(t, tt.totp, resp.TOTPRequired)
			assert.NotEmpty(t, resp.Error)
		})
	}
}

func TestLogin_WithTOTPCode(t *testing.T) {
	be := &fakeBackend{LoginToken: "tok"}
	form := url.Values{"username": {"alice"}, "password": {"pw"}, "totp_code": {" 123456 "}}

	rec := do(newTestRouter(t, be), postForm("/login", form), "")

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, []string{"alice/123456"}, be.Logins)
}

func TestLoginForm(t *testing.T) {
	rec := do(newTestRouter(t, &fakeBackend{}), httptest.NewRequest(http.MethodGet, "/login", nil), "")

	assert.Equal(t, http.StatusOK, rec.Code)
	resp := decode[loginFormResponse](t, rec)
	assert.Equal(t, []string{"username", "password"}, resp.Fields)
}

func TestLogout_ClearsCookie(t *testing.T) {
	rec := do(newTestRouter(t, &fakeBackend{}), httptest.NewRequest(http.MethodPost, "/logout", nil), "tok")

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get("Location"))
	c := sessionCookie(rec)
	require.NotNil(t, c)
	assert.Equal(t, -1, c.MaxAge)
}

func TestRoot_RedirectsToLanding(t *testing.T) {
	rec := do(newTestRouter(t, &fakeBackend{}), httptest.NewRequest(http.MethodGet, "/", nil), "tok")

	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/chat", rec.Header().Get("Location"))
}

func TestChat_RosterFromHistory(t *testing.T) {
	t0 := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	be := &fakeBackend{History: []models.ChatMessage{
		{ID: "1", SenderID: ptr("u1"), RecipientID: ptr(testOperator), Message: "<b>help</b>", CreatedAt: t0},
		{ID: "2", SenderID: ptr(testOperator), RecipientID: ptr("u1"), Message: "on our way", CreatedAt: t0.Add(time.Minute)},
		{ID: "3", SenderID: ptr("u2-abcdefgh"), Message: "hi", CreatedAt: t0.Add(2 * time.Minute)},
	}}

	rec := do(newTestRouter(t, be), httptest.NewRequest(http.MethodGet, "/chat", nil), "opaque-token")

	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode[chatResponse](t, rec)
	assert.Equal(t, testOperator, resp.OperatorID)
	assert.Equal(t, testOperator, be.HistoryFor)
	assert.Equal(t, "ws://chat.local/ws/chat", resp.ChatURL)
	require.Len(t, resp.Users, 2)
	assert.Equal(t, "u2-abcdefgh", resp.Users[0].ID)
	assert.Equal(t, "User u2-abcde", resp.Users[0].Name)
	assert.Equal(t, "u1", resp.Users[1].ID)
	assert.Equal(t, "on our way", resp.Users[1].LastMessage)
}

func TestChat_BackendRejectsToken(t *testing.T) {
	be := &fakeBackend{HistoryErr: fmt.Errorf("history: %w", client.ErrUnauthorized)}

	rec := do(newTestRouter(t, be), httptest.NewRequest(http.MethodGet, "/chat", nil), "stale")

	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get("Location"))
	c := sessionCookie(rec)
	require.NotNil(t, c)
	assert.Equal(t, -1, c.MaxAge)
}

func incidentFixture() []models.Incident {
	t0 := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	return []models.Incident{
		{ID: "a", Subject: "Кража", CreatedAt: t0, Unread: true, Tags: []string{models.TagNew}},
		{ID: "b", Subject: "<script>x</script>Шум", CreatedAt: t0.Add(time.Hour), Tags: []string{"шум"},
			Latitude: ptr(43.25), Longitude: ptr(76.94)},
	}
}

func TestIncidents_ListAndFilter(t *testing.T) {
	be := &fakeBackend{Incidents: incidentFixture()}
	h := newTestRouter(t, be)

	rec := do(h, httptest.NewRequest(http.MethodGet, "/incidents", nil), "tok")
	require.Equal(t, http.StatusOK, rec.Code)
	all := decode[incidentsResponse](t, rec)
	require.Len(t, all.Incidents, 2)
	assert.Equal(t, "b", all.Incidents[0].ID)
	assert.Equal(t, "Шум", all.Incidents[0].Subject)
	assert.Equal(t, []string{"новое", "шум"}, all.Tags)
	assert.Equal(t, []string{"tok"}, be.Tokens)

	rec = do(h, httptest.NewRequest(http.MethodGet, "/incidents?filter=unread", nil), "tok")
	unread := decode[incidentsResponse](t, rec)
	require.Len(t, unread.Incidents, 1)
	assert.Equal(t, "a", unread.Incidents[0].ID)

	rec = do(h, httptest.NewRequest(http.MethodGet, "/incidents?tag="+url.QueryEscape("шум"), nil), "tok")
	tagged := decode[incidentsResponse](t, rec)
	require.Len(t, tagged.Incidents, 1)
	assert.Equal(t, "b", tagged.Incidents[0].ID)
}

func TestIncident_LoadsInboxOnMiss(t *testing.T) {
	be := &fakeBackend{Incidents: incidentFixture()}
	h := newTestRouter(t, be)

	rec := do(h, httptest.NewRequest(http.MethodGet, "/incidents/a", nil), "tok")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "a", decode[models.Incident](t, rec).ID)

	rec = do(h, httptest.NewRequest(http.MethodGet, "/incidents/zzz", nil), "tok")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestReplyIncident(t *testing.T) {
	be := &fakeBackend{Incidents: incidentFixture()}
	h := newTestRouter(t, be)
	do(h, httptest.NewRequest(http.MethodGet, "/incidents", nil), "tok")

	req := httptest.NewRequest(http.MethodPost, "/incidents/a/reply", strings.NewReader(`{"message":" выехали "}`))
	req.Header.Set("Content-Type", "application/json")
	rec := do(h, req, "tok")

	require.Equal(t, http.StatusOK, rec.Code)
	inc := decode[models.Incident](t, rec)
	assert.Equal(t, []string{models.TagResolved}, inc.Tags)
	assert.False(t, inc.Unread)
	assert.Equal(t, models.IncidentReply{Message: "выехали", SenderID: testOperator}, be.Replies["a"])
}

func TestReplyIncident_EmptyIsRejectedLocally(t *testing.T) {
	be := &fakeBackend{Incidents: incidentFixture()}

	rec := do(newTestRouter(t, be), postForm("/incidents/a/reply", url.Values{"message": {"  "}}), "tok")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, be.Replies)
}

func TestMarkIncidentReadAndUnread(t *testing.T) {
	be := &fakeBackend{Incidents: incidentFixture()}
	h := newTestRouter(t, be)
	do(h, httptest.NewRequest(http.MethodGet, "/incidents", nil), "tok")

	rec := do(h, httptest.NewRequest(http.MethodPost, "/incidents/a/read", nil), "tok")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, decode[models.Incident](t, rec).Unread)
	assert.Equal(t, []string{"a"}, be.MarkedRead)

	rec = do(h, httptest.NewRequest(http.MethodPost, "/incidents/a/unread", nil), "tok")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, decode[models.Incident](t, rec).Unread)

	rec = do(h, httptest.NewRequest(http.MethodPost, "/incidents/zzz/unread", nil), "tok")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestNearestStation(t *testing.T) {
	be := &fakeBackend{
		Incidents: incidentFixture(),
		Nearest:   &models.NearestStation{Station: models.PoliceStation{ID: 2, Name: "Алматы"}, DistanceKm: 1.5},
	}
	h := newTestRouter(t, be)
	do(h, httptest.NewRequest(http.MethodGet, "/incidents", nil), "tok")

	rec := do(h, httptest.NewRequest(http.MethodGet, "/incidents/b/station", nil), "tok")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1.5, decode[models.NearestStation](t, rec).DistanceKm)

	rec = do(h, httptest.NewRequest(http.MethodGet, "/incidents/a/station", nil), "tok")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestNews_List(t *testing.T) {
	be := &fakeBackend{News: []models.News{{ID: "n1", Title: "<i>Title</i>", Content: "body"}}}

	rec := do(newTestRouter(t, be), httptest.NewRequest(http.MethodGet, "/news", nil), "tok")

	require.Equal(t, http.StatusOK, rec.Code)
	items := decode[[]models.News](t, rec)
	require.Len(t, items, 1)
	assert.Equal(t, "Title", items[0].Title)
}

func newsRequest(t *testing.T, fields map[string]string, image []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	if image != nil {
		fw, err := mw.CreateFormFile("image", "photo.png")
		require.NoError(t, err)
		_, err = fw.Write(image)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/news", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 2, 2))))
	return buf.Bytes()
}

func TestPublishNews(t *testing.T) {
	be := &fakeBackend{CreateRet: &models.News{ID: "n1", Title: "Итоги"}}

	rec := do(newTestRouter(t, be), newsRequest(t, map[string]string{"title": "Итоги", "content": "Текст"}, pngBytes(t)), "tok")

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "n1", decode[models.News](t, rec).ID)
	require.Len(t, be.Drafts, 1)
	require.NotNil(t, be.Drafts[0].Image)
	assert.Equal(t, "photo.png", be.Drafts[0].Image.Name)
	assert.Equal(t, "image/png", be.Drafts[0].Image.ContentType)
}

func TestPublishNews_Validation(t *testing.T) {
	tests := []struct {
		name   string
		fields map[string]string
		image  []byte
	}{
		{name: "missing title", fields: map[string]string{"content": "x"}},
		{name: "not an image", fields: map[string]string{"title": "t", "content": "x"}, image: []byte("plain text file")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			be := &fakeBackend{}
			rec := do(newTestRouter(t, be), newsRequest(t, tt.fields, tt.image), "tok")

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Empty(t, be.Drafts)
		})
	}
}

func TestPublishNews_BackendError(t *testing.T) {
	be := &fakeBackend{CreateErr: errors.New("boom")}

	rec := do(newTestRouter(t, be), newsRequest(t, map[string]string{"title": "t", "content": "c"}, nil), "tok")

	assert.Equal(t, http.StatusBadGateway, rec.Code)
}
