package lookup_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/shiomura/utakai/internal/lookup"
)

func TestSongClient_Search(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "lemon", r.URL.Query().Get("term"))
		require.Equal(t, "song", r.URL.Query().Get("entity"))
		require.Equal(t, "jp", r.URL.Query().Get("country"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"resultCount": 2,
			"results": [
				{"trackName": "Lemon", "artistName": "Kenshi Yonezu", "artworkUrl100": "https://img.example/lemon.jpg"},
				{"trackName": "Lemon (cover)", "artistName": "Someone Else"}
			]
		}`))
	}))
	defer srv.Close()

	c := lookup.NewSongClient(lookup.SongConfig{BaseURL: srv.URL})

	got := c.Search(context.Background(), "lemon")

	require.Equal(t, []lookup.Song{
		{TrackTitle: "Lemon", ArtistName: "Kenshi Yonezu", ArtworkURL: "https://img.example/lemon.jpg"},
		{TrackTitle: "Lemon (cover)", ArtistName: "Someone Else"},
	}, got)
}

func TestSongClient_SearchDegradesToEmptyOnFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := lookup.NewSongClient(lookup.SongConfig{BaseURL: srv.URL})

	require.Empty(t, c.Search(context.Background(), "anything"))
}

func TestSongClient_EmptyTermShortCircuits(t *testing.T) {
	c := lookup.NewSongClient(lookup.SongConfig{BaseURL: "http://127.0.0.1:1"})

	require.Empty(t, c.Search(context.Background(), ""))
}

func TestSongClient_Artwork(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"results": [
				{"trackName": "First", "artistName": "NoArt"},
				{"trackName": "Second", "artistName": "HasArt", "artworkUrl100": "https://img.example/a.jpg"}
			]
		}`))
	}))
	defer srv.Close()

	c := lookup.NewSongClient(lookup.SongConfig{BaseURL: srv.URL})

	require.Equal(t, "https://img.example/a.jpg", c.Artwork(context.Background(), "second"))
}
