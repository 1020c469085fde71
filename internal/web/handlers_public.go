package web

import (
	"encoding/json"
	"net/http"
	"sync"

	"pressdesk.org/internal/cms"
	"pressdesk.org/internal/crud"
	"pressdesk.org/internal/obs"
)

// handleHome renders the public landing page: published posts plus a
// random piece of media. The two fetches are independent and run
// concurrently; either failing degrades that part of the page to empty.
func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	var (
		wg       sync.WaitGroup
		posts    []crud.Record
		mediaURL string
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		raw, err := s.api.Get(r.Context(), cms.PublicPostsPath)
		if err != nil {
			_ = obs.LogEvent(r.Context(), "web.public_posts_failed", map[string]any{"error": err.Error()})
			return
		}
		var envelope struct {
			Posts []crud.Record `json:"posts"`
		}
		if err := json.Unmarshal(raw, &envelope); err != nil {
			return
		}
		posts = envelope.Posts
	}()
	go func() {
		defer wg.Done()
		raw, err := s.api.Get(r.Context(), cms.RandomMediaPath)
		if err != nil {
			_ = obs.LogEvent(r.Context(), "web.random_media_failed", map[string]any{"error": err.Error()})
			return
		}
		var envelope struct {
			Media struct {
				FilePath string `json:"file_path"`
			} `json:"media"`
		}
		if err := json.Unmarshal(raw, &envelope); err != nil {
			return
		}
		mediaURL = envelope.Media.FilePath
	}()
	wg.Wait()

	data := s.viewFor(r, "pressdesk")
	if desc, ok := cms.Lookup("post"); ok {
		data.Desc = desc
	}
	data.Posts = posts
	data.MediaURL = mediaURL
	s.render(w, r, "home", data)
}

func (s *Server) handleInfo(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, "info", s.viewFor(r, "About"))
}
