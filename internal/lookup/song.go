// Package lookup holds the external collaborators the score path consumes:
// song/artwork search and score-image recognition. Collaborator failures
// always degrade to blank fields; nothing here may block or corrupt a
// numeric score save.
package lookup

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"
)

const (
	defaultBaseURL = "https://itunes.apple.com/search"
	defaultCountry = "jp"
	defaultLimit   = 10
)

// Song is one search candidate used to fill a round's title field.
type Song struct {
	TrackTitle string `json:"trackTitle"`
	ArtistName string `json:"artistName"`
	ArtworkURL string `json:"artworkUrl,omitempty"`
}

type SongConfig struct {
	BaseURL    string
	Country    string
	Limit      int
	HTTPClient *http.Client
}

// SongClient searches the iTunes catalogue for song titles and artwork.
type SongClient struct {
	baseURL string
	country string
	limit   int
	http    *http.Client
}

func NewSongClient(c SongConfig) *SongClient {
	if c.BaseURL == "" {
		c.BaseURL = defaultBaseURL
	}
	if c.Country == "" {
		c.Country = defaultCountry
	}
	if c.Limit <= 0 {
		c.Limit = defaultLimit
	}
	if c.HTTPClient == nil {
		c.HTTPClient = &http.Client{Timeout: 10 * time.Second}
	}

	return &SongClient{
		baseURL: c.BaseURL,
		country: c.Country,
		limit:   c.Limit,
		http:    c.HTTPClient,
	}
}

// Search returns zero or more candidates for a free-text query. Any failure
// degrades to an empty result: a broken catalogue never breaks score entry.
func (c *SongClient) Search(ctx context.Context, term string) []Song {
	if term == "" {
		return nil
	}

	q := url.Values{}
	q.Set("term", term)
	q.Set("entity", "song")
	q.Set("limit", fmt.Sprintf("%d", c.limit))
	q.Set("country", c.country)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		slog.ErrorContext(ctx, "lookup: build song search request", "error", err)
		return nil
	}

	resp, err := c.http.Do(req)
	if err != nil {
		slog.ErrorContext(ctx, "lookup: song search failed", "term", term, "error", err)
		return nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		slog.ErrorContext(ctx, "lookup: song search bad status", "term", term, "status", resp.StatusCode)
		return nil
	}

	var body struct {
		Results []struct {
			TrackName     string `json:"trackName"`
			ArtistName    string `json:"artistName"`
			ArtworkURL100 string `json:"artworkUrl100"`
		} `json:"results"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		slog.ErrorContext(ctx, "lookup: decode song search response", "term", term, "error", err)
		return nil
	}

	songs := make([]Song, 0, len(body.Results))
	for _, r := range body.Results {
		songs = append(songs, Song{
			TrackTitle: r.TrackName,
			ArtistName: r.ArtistName,
			ArtworkURL: r.ArtworkURL100,
		})
	}

	return songs
}

// Artwork resolves a title to an image reference, or "" when nothing
// matches. Purely cosmetic.
func (c *SongClient) Artwork(ctx context.Context, title string) string {
	songs := c.Search(ctx, title)
	for _, s := range songs {
		if s.ArtworkURL != "" {
			return s.ArtworkURL
		}
	}
	return ""
}
