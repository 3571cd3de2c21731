package service

import (
	"context"

	"github.com/onemedia/broadcast-service/internal/domain"
	"github.com/onemedia/broadcast-service/internal/hub"
)

type BroadcastService interface {
	HandleConnect(ctx context.Context, client *hub.Client)
	HandleJoin(ctx context.Context, client *hub.Client, channel string) error
	HandleAuth(ctx context.Context, client *hub.Client, password string) error
	HandleAdminJoin(ctx context.Context, client *hub.Client) error
	HandleRedirect(ctx context.Context, client *hub.Client, channel, url string) error
	HandleControlAd(ctx context.Context, client *hub.Client, action, url string) error
	HandleControlBanner(ctx context.Context, client *hub.Client, action, position, title, text string) error
	HandleControlImage(ctx context.Context, client *hub.Client, channel, action, url string) error
	HandleAddMatch(ctx context.Context, client *hub.Client, fields domain.MatchFields) error
	HandleEditMatch(ctx context.Context, client *hub.Client, id int, fields domain.MatchFields) error
	HandleDeleteMatch(ctx context.Context, client *hub.Client, id int) error
	HandleGetMatches(ctx context.Context, client *hub.Client) error
	HandleGetMatch(ctx context.Context, client *hub.Client, id int) error
	HandleDisconnect(ctx context.Context, client *hub.Client)

	// Read-side accessors for the HTTP API.
	Stats() domain.StatsMessage
	Matches() []domain.Match
	MatchByID(id int) (domain.Match, bool)
}
