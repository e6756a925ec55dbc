package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/dmitrijs2005/opsdesk/internal/chat"
	"github.com/dmitrijs2005/opsdesk/internal/client/client"
	"github.com/dmitrijs2005/opsdesk/internal/client/models"
	"github.com/dmitrijs2005/opsdesk/internal/client/services"
	"github.com/dmitrijs2005/opsdesk/internal/client/session"
	"github.com/dmitrijs2005/opsdesk/internal/filex"
	"github.com/dmitrijs2005/opsdesk/internal/logging"
	"github.com/dmitrijs2005/opsdesk/internal/textx"
	"github.com/go-chi/chi/v5"
)

// Authenticator is the login call of the backend client.
type Authenticator interface {
	Login(ctx context.Context, username, password, totpCode string) (string, error)
}

// Options configures a Handler.
type Options struct {
	ChatURL            string
	SessionMaxAge      time.Duration
	Secure             bool
	FallbackOperatorID string
}

type Handler struct {
	auth      Authenticator
	incidents services.IncidentService
	news      services.NewsService
	history   services.HistoryService
	opts      Options
	log       logging.Logger
	now       func() time.Time
}

func NewHandler(auth Authenticator, incidents services.IncidentService, news services.NewsService,
	history services.HistoryService, opts Options, log logging.Logger) *Handler {
	if opts.SessionMaxAge <= 0 {
		opts.SessionMaxAge = session.DefaultMaxAge
	}
	return &Handler{
		auth:      auth,
		incidents: incidents,
		news:      news,
		history:   history,
		opts:      opts,
		log:       log.With("component", "gateway"),
		now:       time.Now,
	}
}

type errorResponse struct {
	Error        string `json:"error"`
	TOTPRequired bool   `json:"totp_required,omitempty"`
}

type loginFormResponse struct {
	Fields       []string `json:"fields"`
	TOTPRequired bool     `json:"totp_required"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// session builds the explicit session for the guarded request.
func (h *Handler) session(r *http.Request) (*session.Session, bool) {
	token, ok := TokenFrom(r.Context())
	if !ok {
		return nil, false
	}
	sess, err := session.New(token, h.now(), h.opts.SessionMaxAge, h.opts.FallbackOperatorID)
	if err != nil {
		return nil, false
	}
	return sess, true
}

// fail maps err onto a response. A token the backend rejects sends the
// browser back to the login page with the cookie cleared.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	h.log.Warn(r.Context(), "request failed", "path", r.URL.Path, "error", err)

	switch {
	case errors.Is(err, client.ErrUnauthorized):
		ClearSessionCookie(w, h.opts.Secure)
		http.Redirect(w, r, LoginPath, http.StatusFound)
	case errors.Is(err, client.ErrTOTPRequired):
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: client.TOTPRequiredMessage, TOTPRequired: true})
	case errors.Is(err, client.ErrInvalidCredentials):
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: err.Error()})
	case errors.Is(err, client.ErrValidation), errors.Is(err, services.ErrNoLocation):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
	case errors.Is(err, client.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "not found"})
	case errors.Is(err, client.ErrUnavailable), errors.Is(err, context.DeadlineExceeded):
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "server unavailable"})
	default:
		writeJSON(w, http.StatusBadGateway, errorResponse{Error: "request failed"})
	}
}

func (h *Handler) LoginForm(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, loginFormResponse{Fields: []string{"username", "password"}})
}

// Login posts the form to the backend. On success it sets the session cookie
// and redirects to the landing page.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid form"})
		return
	}
	username := strings.TrimSpace(r.PostFormValue("username"))
	password := r.PostFormValue("password")
	totp := strings.TrimSpace(r.PostFormValue("totp_code"))

	if username == "" || password == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "username and password are required"})
		return
	}

	token, err := h.auth.Login(r.Context(), username, password, totp)
	if err != nil {
		if errors.Is(err, client.ErrTOTPRequired) {
			writeJSON(w, http.StatusUnauthorized, struct {
				errorResponse
				Fields []string `json:"fields"`
			}{
				errorResponse{Error: client.TOTPRequiredMessage, TOTPRequired: true},
				[]string{"username", "password", "totp_code"},
			})
			return
		}
		h.fail(w, r, err)
		return
	}

	SetSessionCookie(w, token, h.opts.SessionMaxAge, h.opts.Secure)
	h.log.Info(r.Context(), "operator signed in", "username", username)
	http.Redirect(w, r, LandingPath, http.StatusSeeOther)
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	ClearSessionCookie(w, h.opts.Secure)
	http.Redirect(w, r, LoginPath, http.StatusSeeOther)
}

type chatResponse struct {
	OperatorID string     `json:"operator_id"`
	Username   string     `json:"username,omitempty"`
	ChatURL    string     `json:"chat_url"`
	Users      []userView `json:"users"`
}

type userView struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	LastMessage     string    `json:"last_message"`
	LastMessageTime time.Time `json:"last_message_time"`
}

// offline is the link of a roster-only conversation: nothing is ever sent.
type offline struct{}

func (offline) State() chat.ConnState                     { return chat.StateDisconnected }
func (offline) Send(context.Context, chat.Envelope) error { return chat.ErrNotConnected }

// Chat returns the roster built from stored history, for the front end to
// open its own realtime channel.
func (h *Handler) Chat(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(r)
	if !ok {
		h.fail(w, r, client.ErrUnauthorized)
		return
	}

	history, err := h.history.Load(r.Context(), sess)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	conv := chat.NewConversation(sess.OperatorID, offline{}, chat.NotifierFunc(func(chat.Notice) {}),
		chat.WithTextFilter(textx.Plain))
	conv.Seed(history)

	users := conv.Users()
	resp := chatResponse{
		OperatorID: sess.OperatorID,
		Username:   sess.Username,
		ChatURL:    h.opts.ChatURL,
		Users:      make([]userView, 0, len(users)),
	}
	for _, u := range users {
		resp.Users = append(resp.Users, userView{
			ID:              u.ID,
			Name:            u.Name,
			LastMessage:     u.LastMessage,
			LastMessageTime: u.LastMessageTime,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

type incidentsResponse struct {
	Incidents []models.Incident `json:"incidents"`
	Tags      []string          `json:"tags"`
}

// Incidents lists the inbox. Query: filter=all|unread, tag=<tag>.
func (h *Handler) Incidents(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(r)
	if !ok {
		h.fail(w, r, client.ErrUnauthorized)
		return
	}
	if err := h.incidents.Refresh(r.Context(), sess); err != nil {
		h.fail(w, r, err)
		return
	}

	q := r.URL.Query()
	f := services.Filter{UnreadOnly: q.Get("filter") == "unread", Tag: q.Get("tag")}
	items := h.incidents.List(f)
	for i := range items {
		items[i] = plainIncident(items[i])
	}
	writeJSON(w, http.StatusOK, incidentsResponse{Incidents: items, Tags: h.incidents.Tags()})
}

func (h *Handler) Incident(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	inc, ok := h.incidents.Get(id)
	if !ok {
		sess, ok := h.session(r)
		if !ok {
			h.fail(w, r, client.ErrUnauthorized)
			return
		}
		if err := h.incidents.Refresh(r.Context(), sess); err != nil {
			h.fail(w, r, err)
			return
		}
		inc, ok = h.incidents.Get(id)
	}
	if !ok {
		h.fail(w, r, client.ErrNotFound)
		return
	}
	writeJSON(w, http.StatusOK, plainIncident(inc))
}

type replyRequest struct {
	Message string `json:"message"`
}

func (h *Handler) ReplyIncident(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(r)
	if !ok {
		h.fail(w, r, client.ErrUnauthorized)
		return
	}

	var req replyRequest
	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid json"})
			return
		}
	} else {
		req.Message = r.PostFormValue("message")
	}

	id := chi.URLParam(r, "id")
	if err := h.incidents.Reply(r.Context(), sess, id, req.Message); err != nil {
		h.fail(w, r, err)
		return
	}
	h.writeIncident(w, r, id)
}

func (h *Handler) MarkIncidentRead(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(r)
	if !ok {
		h.fail(w, r, client.ErrUnauthorized)
		return
	}
	id := chi.URLParam(r, "id")
	if err := h.incidents.MarkRead(r.Context(), sess, id); err != nil {
		h.fail(w, r, err)
		return
	}
	h.writeIncident(w, r, id)
}

func (h *Handler) MarkIncidentUnread(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.incidents.MarkUnread(id); err != nil {
		h.fail(w, r, err)
		return
	}
	h.writeIncident(w, r, id)
}

func (h *Handler) NearestStation(w http.ResponseWriter, r *http.Request) {
	st, err := h.incidents.NearestStation(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (h *Handler) writeIncident(w http.ResponseWriter, r *http.Request, id string) {
	inc, ok := h.incidents.Get(id)
	if !ok {
		// not in the cached inbox; the backend accepted the change anyway
		writeJSON(w, http.StatusOK, map[string]string{"id": id})
		return
	}
	writeJSON(w, http.StatusOK, plainIncident(inc))
}

func (h *Handler) News(w http.ResponseWriter, r *http.Request) {
	items, err := h.news.List(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	for i := range items {
		items[i].Title = textx.Plain(items[i].Title)
		items[i].Content = textx.Plain(items[i].Content)
	}
	writeJSON(w, http.StatusOK, items)
}

// PublishNews accepts the multipart form title, content and optional image.
func (h *Handler) PublishNews(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(r)
	if !ok {
		h.fail(w, r, client.ErrUnauthorized)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, filex.MaxAttachmentSize+1<<20)
	if err := r.ParseMultipartForm(filex.MaxAttachmentSize); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid form"})
		return
	}

	draft := models.NewsDraft{
		Title:   r.FormValue("title"),
		Content: r.FormValue("content"),
	}

	file, hdr, err := r.FormFile("image")
	switch {
	case err == nil:
		defer file.Close()
		data, err := io.ReadAll(io.LimitReader(file, filex.MaxAttachmentSize+1))
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid image"})
			return
		}
		draft.Image = &models.Image{
			Name:        hdr.Filename,
			ContentType: http.DetectContentType(data),
			Data:        data,
		}
	case !errors.Is(err, http.ErrMissingFile):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid image"})
		return
	}

	n, err := h.news.Publish(r.Context(), sess, draft)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, n)
}

func plainIncident(inc models.Incident) models.Incident {
	inc.SenderName = textx.Plain(inc.SenderName)
	inc.Subject = textx.Plain(inc.Subject)
	inc.Excerpt = textx.Plain(inc.Excerpt)
	if len(inc.Messages) > 0 {
		msgs := make([]models.IncidentMessage, len(inc.Messages))
		copy(msgs, inc.Messages)
		for i := range msgs {
			msgs[i].Message = textx.Plain(msgs[i].Message)
		}
		inc.Messages = msgs
	}
	return inc
}
