package models

import "time"

type News struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	ImageURL  string    `json:"image_url"`
	CreatedAt time.Time `json:"created_at"`
}

// NewsDraft is what the operator submits. Image is optional.
type NewsDraft struct {
	Title   string
	Content string
	Image   *Image
}

type Image struct {
	Name        string
	ContentType string
	Data        []byte
}
