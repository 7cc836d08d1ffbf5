package infrastructure

import (
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"time"

	"github.com/yourusername/vidbatch-go/internal/domain"
)

// PlaylistEntry is one member of a flat playlist listing.
type PlaylistEntry struct {
	ID    string `json:"id"`
	URL   string `json:"url"`
	Title string `json:"title"`
}

// PlaylistMetadata is the flat listing of a remote playlist.
type PlaylistMetadata struct {
	ID      string          `json:"id"`
	Title   string          `json:"title"`
	Entries []PlaylistEntry `json:"entries"`
}

// Key returns the entry's stable identifier, preferring the ID and
// falling back to the URL.
func (e PlaylistEntry) Key() string {
	if e.ID != "" {
		return e.ID
	}
	return e.URL
}

// YTDLPPlaylistFetcher lists playlist members via the downloader's flat
// JSON metadata mode, without downloading any media.
type YTDLPPlaylistFetcher struct {
	binary  string
	timeout time.Duration
}

// NewYTDLPPlaylistFetcher creates a fetcher for the given binary.
// timeout bounds one fetch; zero falls back to 180s.
func NewYTDLPPlaylistFetcher(binary string, timeout time.Duration) *YTDLPPlaylistFetcher {
	if timeout <= 0 {
		timeout = 180 * time.Second
	}
	return &YTDLPPlaylistFetcher{binary: binary, timeout: timeout}
}

// Fetch lists the playlist's current members. A process failure, an
// unparsable listing, or an empty entry set all map to
// domain.ErrMetadataFetch.
func (f *YTDLPPlaylistFetcher) Fetch(ctx context.Context, playlistURL string) (*PlaylistMetadata, error) {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, f.binary, BuildPlaylistFetchArgs(playlistURL)...)
	output, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrMetadataFetch, err)
	}

	var metadata PlaylistMetadata
	if err := json.Unmarshal(output, &metadata); err != nil {
		return nil, fmt.Errorf("%w: invalid listing: %v", domain.ErrMetadataFetch, err)
	}
	if len(metadata.Entries) == 0 {
		return nil, fmt.Errorf("%w: playlist is empty", domain.ErrMetadataFetch)
	}
	return &metadata, nil
}
