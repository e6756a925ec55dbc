package cli

import (
	"context"

	"github.com/dmitrijs2005/opsdesk/internal/client/models"
	"github.com/dmitrijs2005/opsdesk/internal/client/services"
)

// getMultiline and loadImage are test seams.
var getMultiline = GetMultiline
var loadImage = services.LoadImage

// News lists published news.
func (a *App) News(ctx context.Context) error {
	items, err := a.newsService.List(ctx)
	if err != nil {
		a.handleErr(ctx, "Could not load news", err)
		return err
	}
	if len(items) == 0 {
		printlnFn("No news yet")
		return nil
	}
	for _, n := range items {
		printlnFn(formatNews(n))
	}
	return nil
}

// Publish prompts for a title, a body and an optional image path, then
// publishes the news item.
func (a *App) Publish(ctx context.Context) error {
	title, err := getSimpleText(a.reader, "Enter title", a.out)
	if err != nil {
		return err
	}
	content, err := getMultiline(a.reader, "Enter text (double Enter to finish):", a.out)
	if err != nil {
		return err
	}
	path, err := getSimpleText(a.reader, "Image file (empty for none)", a.out)
	if err != nil {
		return err
	}

	draft := models.NewsDraft{Title: title, Content: content}
	if path != "" {
		img, err := loadImage(path)
		if err != nil {
			a.handleErr(ctx, "Image rejected", err)
			return err
		}
		draft.Image = img
	}

	n, err := a.newsService.Publish(ctx, a.session, draft)
	if err != nil {
		a.handleErr(ctx, "News not published", err)
		return err
	}
	printlnFn("Published:", n.Title)
	return nil
}
