// Package models defines the records exchanged with the police backend.
package models

import (
	"slices"
	"time"
)

const (
	TagNew      = "новое"
	TagResolved = "решено"
)

type Incident struct {
	ID         string            `json:"id"`
	SenderName string            `json:"sender_name"`
	Subject    string            `json:"subject"`
	Excerpt    string            `json:"excerpt"`
	CreatedAt  time.Time         `json:"created_at"`
	Unread     bool              `json:"unread"`
	Tags       []string          `json:"tags"`
	MediaURLs  []string          `json:"media_urls"`
	Latitude   *float64          `json:"latitude,omitempty"`
	Longitude  *float64          `json:"longitude,omitempty"`
	Messages   []IncidentMessage `json:"messages,omitempty"`
}

type IncidentMessage struct {
	ID         string    `json:"id"`
	IncidentID string    `json:"incident_id"`
	SenderID   *string   `json:"sender_id"`
	Message    string    `json:"message"`
	CreatedAt  time.Time `json:"created_at"`
}

// IncidentReply is the body of POST /api/incidents/{id}/messages.
type IncidentReply struct {
	Message  string `json:"message"`
	SenderID string `json:"sender_id,omitempty"`
}

// HasLocation reports whether both coordinates are present.
func (i *Incident) HasLocation() bool {
	return i.Latitude != nil && i.Longitude != nil
}

func (i *Incident) HasTag(tag string) bool {
	return slices.Contains(i.Tags, tag)
}

// MarkResolved swaps the "new" tag for "resolved" and clears the unread flag,
// mirroring what the backend does after an operator reply.
func (i *Incident) MarkResolved() {
	tags := make([]string, 0, len(i.Tags))
	resolved := false
	for _, t := range i.Tags {
		switch t {
		case TagNew:
			continue
		case TagResolved:
			resolved = true
		}
		tags = append(tags, t)
	}
	if !resolved {
		tags = append(tags, TagResolved)
	}
	i.Tags = tags
	i.Unread = false
}
