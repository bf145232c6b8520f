package activitypub

import (
	"io"
	"net/http"

	"github.com/bihlink/shuttlecraft/internal/algorithms"
	"github.com/bihlink/shuttlecraft/internal/httpx"
	"github.com/gorilla/feeds"
)

// Feed serves the first outbox page as an RSS feed.
func Feed(env *Env, w http.ResponseWriter, r *http.Request) error {
	identity, err := env.Identities().Get()
	if err != nil {
		return httpx.Error(http.StatusNotFound, err)
	}
	page, err := env.OutboxPage(0)
	if err != nil {
		return err
	}

	feed := &feeds.Feed{
		Title: identity.Name() + "@" + identity.Domain(),
		Link:  &feeds.Link{Href: "https://" + identity.Domain()},
	}
	if len(page.Posts) > 0 {
		feed.Created = page.Posts[0].PublishedTime()
	}
	feed.Items = algorithms.Map(page.Posts, func(note *Note) *feeds.Item {
		var title string
		if note.Summary != nil {
			title = *note.Summary
		}
		return &feeds.Item{
			Id:          note.ID,
			Title:       title,
			Description: note.Content,
			Link:        &feeds.Link{Href: note.URL},
			Created:     note.PublishedTime(),
		}
	})

	rss, err := feed.ToRss()
	if err != nil {
		return err
	}
	w.Header().Set("Content-Type", "text/xml; charset=utf-8")
	_, err = io.WriteString(w, rss)
	return err
}
