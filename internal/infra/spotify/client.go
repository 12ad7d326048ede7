// Package spotify loads playlist tracks from the Spotify Web API.
package spotify

import (
	"context"
	"net/url"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"
	"github.com/zmb3/spotify/v2"
	spotifyauth "github.com/zmb3/spotify/v2/auth"
	"golang.org/x/oauth2"

	"github.com/osa030/pomotune/internal/domain/track"
)

// ErrInvalidPlaylist is returned when a playlist reference cannot be parsed.
var ErrInvalidPlaylist = errors.New("invalid playlist reference")

const (
	defaultMarket = "JP"
	pageSize      = 100
)

// Config represents Spotify client configuration.
type Config struct {
	ClientID     string
	ClientSecret string
	RefreshToken string
	Market       string
}

// Client wraps the Spotify API with paging and backoff.
type Client struct {
	api     *spotify.Client
	market  string
	backoff backoff
}

type backoff struct {
	attempts int
	base     time.Duration
	max      time.Duration
}

// New creates a client that refreshes its access token from cfg.RefreshToken.
func New(ctx context.Context, cfg Config) (*Client, error) {
	if cfg.ClientID == "" || cfg.ClientSecret == "" || cfg.RefreshToken == "" {
		return nil, errors.New("spotify credentials are required")
	}

	auth := spotifyauth.New(
		spotifyauth.WithClientID(cfg.ClientID),
		spotifyauth.WithClientSecret(cfg.ClientSecret),
		spotifyauth.WithScopes(spotifyauth.ScopePlaylistReadPrivate),
	)
	httpClient := auth.Client(ctx, &oauth2.Token{RefreshToken: cfg.RefreshToken})

	market := cfg.Market
	if market == "" {
		market = defaultMarket
	}

	return &Client{
		api:     spotify.New(httpClient, spotify.WithRetry(true)),
		market:  market,
		backoff: backoff{attempts: 4, base: 500 * time.Millisecond, max: 8 * time.Second},
	}, nil
}

// GetPlaylistTracks returns every track of the playlist in playlist order.
// Episodes are skipped. Tracks without a preview clip have an empty AudioURL.
func (c *Client) GetPlaylistTracks(ctx context.Context, playlist string) ([]track.Track, error) {
	id, err := ParsePlaylistID(playlist)
	if err != nil {
		return nil, err
	}

	var page *spotify.PlaylistItemPage
	err = c.do(ctx, func() error {
		var err error
		page, err = c.api.GetPlaylistItems(ctx, id,
			spotify.Limit(pageSize),
			spotify.Market(c.market),
		)
		return err
	})
	if err != nil {
		return nil, errors.Wrapf(err, "get playlist items %s", id)
	}

	tracks := make([]track.Track, 0, page.Total)
	for {
		for _, item := range page.Items {
			if t := item.Track.Track; t != nil && t.ID != "" {
				tracks = append(tracks, convertTrack(t))
			}
		}

		err := c.do(ctx, func() error { return c.api.NextPage(ctx, page) })
		if errors.Is(err, spotify.ErrNoMorePages) {
			break
		}
		if err != nil {
			return nil, errors.Wrapf(err, "get playlist items %s at offset %d", id, page.Offset)
		}
	}

	zlog.Debug().Msgf("spotify playlist loaded: id=%s tracks=%d", id, len(tracks))
	return tracks, nil
}

// CheckPlaylistExists fetches only the playlist header to confirm access.
func (c *Client) CheckPlaylistExists(ctx context.Context, playlist string) error {
	id, err := ParsePlaylistID(playlist)
	if err != nil {
		return err
	}

	err = c.do(ctx, func() error {
		_, err := c.api.GetPlaylist(ctx, id, spotify.Fields("id,name"), spotify.Market(c.market))
		return err
	})
	if err != nil {
		return errors.Wrapf(err, "playlist %s is not accessible", id)
	}
	return nil
}

// do runs fn until it succeeds, fails permanently or ctx is done.
func (c *Client) do(ctx context.Context, fn func() error) error {
	delay := c.backoff.base
	var err error
	for attempt := 1; ; attempt++ {
		if err = fn(); err == nil || !isRetryable(err) || attempt >= c.backoff.attempts {
			return err
		}

		zlog.Debug().Msgf("spotify request retry: attempt=%d delay=%s err=%v", attempt, delay, err)
		select {
		case <-ctx.Done():
			return errors.WithSecondaryError(ctx.Err(), err)
		case <-time.After(delay):
		}
		delay = min(delay*2, c.backoff.max)
	}
}

// isRetryable reports whether err is a rate limit or a server side failure.
func isRetryable(err error) bool {
	if err == nil || errors.Is(err, spotify.ErrNoMorePages) {
		return false
	}

	var apiErr spotify.Error
	if errors.As(err, &apiErr) {
		return apiErr.Status == 429 || apiErr.Status >= 500
	}

	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "rate limit") {
		return true
	}
	for _, code := range []string{"429", "500", "502", "503", "504"} {
		if strings.Contains(msg, code) {
			return true
		}
	}
	return false
}

// ParsePlaylistID accepts a spotify:playlist: URI, an open.spotify.com URL
// (optionally with a locale segment and query string) or a bare ID.
func ParsePlaylistID(ref string) (spotify.ID, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return "", ErrInvalidPlaylist
	}

	if id, ok := strings.CutPrefix(ref, "spotify:playlist:"); ok {
		return checkedID(id, ref)
	}

	if strings.Contains(ref, "://") {
		u, err := url.Parse(ref)
		if err != nil || u.Host != "open.spotify.com" {
			return "", errors.Wrapf(ErrInvalidPlaylist, "%q", ref)
		}
		_, id, ok := strings.Cut(u.Path, "/playlist/")
		if !ok {
			return "", errors.Wrapf(ErrInvalidPlaylist, "%q", ref)
		}
		return checkedID(strings.Trim(id, "/"), ref)
	}

	return checkedID(ref, ref)
}

func checkedID(id, ref string) (spotify.ID, error) {
	if id == "" || strings.ContainsAny(id, "/:?") {
		return "", errors.Wrapf(ErrInvalidPlaylist, "%q", ref)
	}
	return spotify.ID(id), nil
}

// convertTrack maps a Spotify track onto the catalog model.
// The album cover doubles as the track wallpaper.
func convertTrack(t *spotify.FullTrack) track.Track {
	names := make([]string, 0, len(t.Artists))
	for _, a := range t.Artists {
		names = append(names, a.Name)
	}

	out := track.Track{
		ID:       string(t.ID),
		Title:    t.Name,
		Artist:   strings.Join(names, ", "),
		AudioURL: t.PreviewURL,
		Duration: time.Duration(t.Duration) * time.Millisecond,
	}

	if len(t.Album.Images) == 0 {
		return out
	}
	wallpaperID := string(t.Album.ID)
	if wallpaperID == "" {
		wallpaperID = string(t.ID)
	}
	out.WallpaperID = track.StringPtr(wallpaperID)
	out.Wallpaper = &track.Wallpaper{
		ID:       wallpaperID,
		Name:     t.Album.Name,
		ImageURL: t.Album.Images[0].URL,
	}
	return out
}
