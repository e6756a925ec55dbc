package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/dmitrijs2005/opsdesk/internal/client/models"
)

// HTTPClient talks to the police backend REST API.
type HTTPClient struct {
	baseURL string
	http    *http.Client
}

func NewHTTPClient(baseURL string, timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	TOTPCode string `json:"totp_code,omitempty"`
}

type tokenResponse struct {
	Token string `json:"token"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (c *HTTPClient) Login(ctx context.Context, username, password, totpCode string) (string, error) {
	var resp tokenResponse
	err := c.doJSON(ctx, http.MethodPost, "/api/auth/login", "", loginRequest{
		Username: username,
		Password: password,
		TOTPCode: totpCode,
	}, &resp)
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.Status == http.StatusUnauthorized {
			apiErr.kind = ErrInvalidCredentials
		}
		return "", err
	}
	if resp.Token == "" {
		return "", fmt.Errorf("login: empty token in response")
	}
	return resp.Token, nil
}

func (c *HTTPClient) ListIncidents(ctx context.Context, token string) ([]models.Incident, error) {
	var incidents []models.Incident
	if err := c.doJSON(ctx, http.MethodGet, "/api/incidents", token, nil, &incidents); err != nil {
		return nil, err
	}
	return incidents, nil
}

func (c *HTTPClient) ReplyIncident(ctx context.Context, token, incidentID string, reply models.IncidentReply) error {
	path := "/api/incidents/" + url.PathEscape(incidentID) + "/messages"
	return c.doJSON(ctx, http.MethodPost, path, token, reply, nil)
}

func (c *HTTPClient) MarkIncidentRead(ctx context.Context, token, incidentID string) error {
	path := "/api/incidents/" + url.PathEscape(incidentID) + "/read"
	return c.doJSON(ctx, http.MethodPut, path, token, nil, nil)
}

func (c *HTTPClient) ListNews(ctx context.Context) ([]models.News, error) {
	var news []models.News
	if err := c.doJSON(ctx, http.MethodGet, "/api/news", "", nil, &news); err != nil {
		return nil, err
	}
	return news, nil
}

func (c *HTTPClient) CreateNews(ctx context.Context, token string, draft models.NewsDraft) (*models.News, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	if err := mw.WriteField("title", draft.Title); err != nil {
		return nil, err
	}
	if err := mw.WriteField("content", draft.Content); err != nil {
		return nil, err
	}
	if img := draft.Image; img != nil {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="image"; filename=%q`, img.Name))
		h.Set("Content-Type", img.ContentType)
		part, err := mw.CreatePart(h)
		if err != nil {
			return nil, err
		}
		if _, err := part.Write(img.Data); err != nil {
			return nil, err
		}
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}

	var created models.News
	if err := c.do(ctx, http.MethodPost, "/api/news", token, &body, mw.FormDataContentType(), &created); err != nil {
		return nil, err
	}
	if created.Title == "" {
		created.Title = draft.Title
	}
	created.Content = draft.Content
	return &created, nil
}

func (c *HTTPClient) ChatHistory(ctx context.Context, token, userID string) ([]models.ChatMessage, error) {
	path := "/api/chat/messages?" + url.Values{"user_id": {userID}}.Encode()
	var messages []models.ChatMessage
	if err := c.doJSON(ctx, http.MethodGet, path, token, nil, &messages); err != nil {
		return nil, err
	}
	return messages, nil
}

func (c *HTTPClient) NearestStation(ctx context.Context, latitude, longitude float64) (*models.NearestStation, error) {
	q := url.Values{
		"latitude":  {strconv.FormatFloat(latitude, 'f', -1, 64)},
		"longitude": {strconv.FormatFloat(longitude, 'f', -1, 64)},
	}
	var nearest models.NearestStation
	if err := c.doJSON(ctx, http.MethodGet, "/api/police-stations/nearest?"+q.Encode(), "", nil, &nearest); err != nil {
		return nil, err
	}
	return &nearest, nil
}

func (c *HTTPClient) doJSON(ctx context.Context, method, path, token string, in, out any) error {
	var body io.Reader
	contentType := ""
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(b)
		contentType = "application/json"
	}
	return c.do(ctx, method, path, token, body, contentType, out)
}

func (c *HTTPClient) do(ctx context.Context, method, path, token string, body io.Reader, contentType string, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return mapTransportError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return mapError(resp)
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}

// mapError turns a non-2xx response into an *APIError carrying the backend
// "error" text and the matching sentinel.
func mapError(resp *http.Response) error {
	b, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))

	var er errorResponse
	msg := ""
	if json.Unmarshal(b, &er) == nil {
		msg = er.Error
	}

	e := &APIError{Status: resp.StatusCode, Message: msg}
	switch {
	case msg == TOTPRequiredMessage:
		e.kind = ErrTOTPRequired
	case resp.StatusCode == http.StatusUnauthorized, resp.StatusCode == http.StatusForbidden:
		e.kind = ErrUnauthorized
	case resp.StatusCode == http.StatusNotFound:
		e.kind = ErrNotFound
	case resp.StatusCode == http.StatusBadRequest:
		e.kind = ErrValidation
	case resp.StatusCode == http.StatusBadGateway,
		resp.StatusCode == http.StatusServiceUnavailable,
		resp.StatusCode == http.StatusGatewayTimeout:
		e.kind = ErrUnavailable
	}
	return e
}

// mapTransportError reports every failure to reach the backend as
// ErrUnavailable, except a caller-side cancellation.
func mapTransportError(err error) error {
	if errors.Is(err, context.Canceled) {
		return err
	}
	return fmt.Errorf("%w: %v", ErrUnavailable, err)
}
