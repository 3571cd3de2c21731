package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/onemedia/broadcast-service/internal/audit"
	"github.com/onemedia/broadcast-service/internal/domain"
	"github.com/onemedia/broadcast-service/internal/hub"
	"github.com/onemedia/broadcast-service/internal/log"
	"github.com/onemedia/broadcast-service/internal/state"
)

type broadcastService struct {
	hub       *hub.Hub
	authority *state.Authority
	display   *state.BroadcastState
	matches   *state.MatchRegistry
	visitors  *state.VisitorTracker
	now       func() time.Time
}

// NewBroadcastService wires the registries behind the event handlers and
// installs itself as the hub's disconnect hook.
func NewBroadcastService(
	h *hub.Hub,
	authority *state.Authority,
	display *state.BroadcastState,
	matches *state.MatchRegistry,
	visitors *state.VisitorTracker,
) BroadcastService {
	s := &broadcastService{
		hub:       h,
		authority: authority,
		display:   display,
		matches:   matches,
		visitors:  visitors,
		now:       time.Now,
	}
	h.SetDisconnectHandler(func(c *hub.Client) {
		s.HandleDisconnect(context.Background(), c)
	})
	return s
}

func (s *broadcastService) HandleConnect(ctx context.Context, c *hub.Client) {
	s.visitors.Observe(c.Session.GetOrigin(), c.ID, s.now())
	s.publishStats()
}

func (s *broadcastService) HandleJoin(ctx context.Context, c *hub.Client, channel string) error {
	prev, count, err := s.hub.JoinChannel(c, channel)
	switch {
	case errors.Is(err, hub.ErrUnknownChannel):
		return c.SendMessage(domain.NewErrorMessage(domain.ErrCodeUnknownChannel, fmt.Sprintf("channel %q is not declared", channel)))
	case errors.Is(err, hub.ErrClientGone):
		return nil
	case err != nil:
		return err
	}

	// Snapshot-on-join: the joiner missed whatever mutation is currently
	// live, so replay it synchronously before anything else is sent.
	view := s.display.ChannelView(channel)

	c.SendMessage(&domain.JoinedMessage{Type: domain.MsgTypeJoined, Channel: channel, Viewers: count})
	if view.AdPlaying {
		c.SendMessage(&domain.AdOut{Type: domain.MsgTypePlayAd, URL: view.AdURL})
	}
	if view.BannerVisible {
		c.SendMessage(&domain.BannerOut{
			Type:     domain.MsgTypeShowBanner,
			Position: string(view.BannerPosition),
			Title:    view.BannerTitle,
			Text:     view.BannerText,
		})
	}
	if view.ImageURL != "" {
		c.SendMessage(&domain.ImageOut{Type: domain.MsgTypeShowImage, URL: view.ImageURL})
	}

	s.broadcastViewerCount(channel)
	if prev != "" {
		s.broadcastViewerCount(prev)
	}
	s.publishStats()
	return nil
}

func (s *broadcastService) HandleAuth(ctx context.Context, c *hub.Client, password string) error {
	if s.authority.Authenticate(c.ID, password) {
		audit.Log(ctx, audit.ActionAuth, c.ID, "admin authorized")
		return c.SendMessage(&domain.AuthResultMessage{Type: domain.MsgTypeAuthResult, Success: true})
	}

	audit.Log(ctx, audit.ActionAuthFailed, c.ID, "wrong admin password")
	return c.SendMessage(&domain.AuthResultMessage{Type: domain.MsgTypeAuthResult, Success: false})
}

func (s *broadcastService) HandleAdminJoin(ctx context.Context, c *hub.Client) error {
	if !s.authority.IsAuthorized(c.ID) {
		return c.SendMessage(domain.NewErrorMessage(domain.ErrCodeUnauthorized, "not authorized"))
	}
	if err := s.hub.JoinAdmins(c); err != nil {
		return nil
	}

	audit.Log(ctx, audit.ActionAdminJoin, c.ID, "joined admin group")

	// The new admin gets an immediate snapshot rather than waiting for the
	// next mutation.
	stats := s.Stats()
	return c.SendMessage(&stats)
}

func (s *broadcastService) HandleRedirect(ctx context.Context, c *hub.Client, channel, url string) error {
	if !s.requireAdmin(c) {
		return nil
	}
	if url == "" {
		return c.SendMessage(domain.NewErrorMessage(domain.ErrCodeBadRequest, "url is required"))
	}
	if !s.hub.HasChannel(channel) {
		return c.SendMessage(domain.NewErrorMessage(domain.ErrCodeUnknownChannel, fmt.Sprintf("channel %q is not declared", channel)))
	}

	s.hub.BroadcastToChannel(channel, &domain.RedirectOut{Type: domain.MsgTypeRedirect, URL: url}, c.ID)
	audit.LogWithDetail(ctx, audit.ActionRedirect, c.ID, channel+" -> "+url, "channel redirected")
	return nil
}

func (s *broadcastService) HandleControlAd(ctx context.Context, c *hub.Client, action, url string) error {
	if !s.requireAdmin(c) {
		return nil
	}

	switch action {
	case domain.ActionPlay:
		if url == "" {
			return c.SendMessage(domain.NewErrorMessage(domain.ErrCodeBadRequest, "url is required to play an ad"))
		}
		s.display.SetAd(true, url)
		s.hub.BroadcastAll(&domain.AdOut{Type: domain.MsgTypePlayAd, URL: url}, c.ID)
	case domain.ActionStop:
		s.display.SetAd(false, "")
		s.hub.BroadcastAll(&domain.BaseMessage{Type: domain.MsgTypeStopAd}, c.ID)
	default:
		return c.SendMessage(domain.NewErrorMessage(domain.ErrCodeBadRequest, fmt.Sprintf("unknown ad action %q", action)))
	}

	audit.LogWithDetail(ctx, audit.ActionControlAd, c.ID, action, "ad state changed")
	s.publishStats()
	return nil
}

func (s *broadcastService) HandleControlBanner(ctx context.Context, c *hub.Client, action, position, title, text string) error {
	if !s.requireAdmin(c) {
		return nil
	}

	switch action {
	case domain.ActionShow:
		pos := state.ParseBannerPosition(position)
		s.display.SetBanner(true, pos, title, text)
		s.hub.BroadcastAll(&domain.BannerOut{
			Type:     domain.MsgTypeShowBanner,
			Position: string(pos),
			Title:    title,
			Text:     text,
		}, c.ID)
	case domain.ActionHide:
		s.display.SetBanner(false, state.DefaultBannerPosition, "", "")
		s.hub.BroadcastAll(&domain.BaseMessage{Type: domain.MsgTypeHideBanner}, c.ID)
	default:
		return c.SendMessage(domain.NewErrorMessage(domain.ErrCodeBadRequest, fmt.Sprintf("unknown banner action %q", action)))
	}

	audit.LogWithDetail(ctx, audit.ActionControlBanner, c.ID, action, "banner state changed")
	s.publishStats()
	return nil
}

func (s *broadcastService) HandleControlImage(ctx context.Context, c *hub.Client, channel, action, url string) error {
	if !s.requireAdmin(c) {
		return nil
	}
	if !s.hub.HasChannel(channel) {
		return c.SendMessage(domain.NewErrorMessage(domain.ErrCodeUnknownChannel, fmt.Sprintf("channel %q is not declared", channel)))
	}

	switch action {
	case domain.ActionShow:
		if url == "" {
			return c.SendMessage(domain.NewErrorMessage(domain.ErrCodeBadRequest, "url is required to show an image"))
		}
		s.display.SetImage(channel, url)
		s.hub.BroadcastToChannel(channel, &domain.ImageOut{Type: domain.MsgTypeShowImage, URL: url}, c.ID)
	case domain.ActionHide:
		s.display.SetImage(channel, "")
		s.hub.BroadcastToChannel(channel, &domain.BaseMessage{Type: domain.MsgTypeHideImage}, c.ID)
	default:
		return c.SendMessage(domain.NewErrorMessage(domain.ErrCodeBadRequest, fmt.Sprintf("unknown image action %q", action)))
	}

	audit.LogWithDetail(ctx, audit.ActionControlImage, c.ID, channel+" "+action, "image state changed")
	s.publishStats()
	return nil
}

func (s *broadcastService) HandleAddMatch(ctx context.Context, c *hub.Client, fields domain.MatchFields) error {
	if !s.requireAdmin(c) {
		return nil
	}
	if fields.HomeTeam == "" || fields.AwayTeam == "" {
		return c.SendMessage(domain.NewErrorMessage(domain.ErrCodeBadRequest, "home_team and away_team are required"))
	}

	id, err := s.matches.Add(fields)
	if err != nil {
		return c.SendMessage(domain.NewErrorMessage(domain.ErrCodeCapacityExceeded, err.Error()))
	}

	audit.LogWithDetail(ctx, audit.ActionMatchAdd, c.ID, fmt.Sprintf("slot %d", id), "match added")
	s.broadcastMatchList()
	s.publishStats()
	return nil
}

func (s *broadcastService) HandleEditMatch(ctx context.Context, c *hub.Client, id int, fields domain.MatchFields) error {
	if !s.requireAdmin(c) {
		return nil
	}
	if fields.HomeTeam == "" || fields.AwayTeam == "" {
		return c.SendMessage(domain.NewErrorMessage(domain.ErrCodeBadRequest, "home_team and away_team are required"))
	}

	if err := s.matches.Edit(id, fields); err != nil {
		return c.SendMessage(domain.NewErrorMessage(domain.ErrCodeNotFound, err.Error()))
	}

	audit.LogWithDetail(ctx, audit.ActionMatchEdit, c.ID, fmt.Sprintf("slot %d", id), "match edited")
	s.broadcastMatchList()
	s.publishStats()
	return nil
}

func (s *broadcastService) HandleDeleteMatch(ctx context.Context, c *hub.Client, id int) error {
	if !s.requireAdmin(c) {
		return nil
	}

	s.matches.Delete(id)

	audit.LogWithDetail(ctx, audit.ActionMatchDelete, c.ID, fmt.Sprintf("slot %d", id), "match deleted")
	s.broadcastMatchList()
	s.publishStats()
	return nil
}

func (s *broadcastService) HandleGetMatches(ctx context.Context, c *hub.Client) error {
	return c.SendMessage(&domain.MatchListMessage{
		Type:    domain.MsgTypeMatchList,
		Matches: s.matches.Active(),
	})
}

func (s *broadcastService) HandleGetMatch(ctx context.Context, c *hub.Client, id int) error {
	msg := &domain.MatchDataMessage{Type: domain.MsgTypeMatchData}
	if match, ok := s.matches.Get(id); ok {
		msg.Match = &match
		msg.Found = true
	}
	return c.SendMessage(msg)
}

// HandleDisconnect is the full teardown for one connection. The hub runs it
// exactly once, after membership removal; it must never raise, so failures
// are only logged.
func (s *broadcastService) HandleDisconnect(ctx context.Context, c *hub.Client) {
	channel := c.Session.CurrentChannel()
	c.Session.LeaveChannel()

	s.authority.Revoke(c.ID)
	s.visitors.Release(c.ID)

	if channel != "" {
		s.broadcastViewerCount(channel)
	}
	s.publishStats()

	l := log.Ctx(ctx)
	l.Debug().Str(log.FieldClientID, c.ID).Str(log.FieldChannel, channel).Msg("connection torn down")
}

func (s *broadcastService) Stats() domain.StatsMessage {
	view := s.display.ChannelView("")
	daily, current := s.visitors.Snapshot(s.now())

	return domain.StatsMessage{
		Type:          domain.MsgTypeUpdateStats,
		Channels:      s.hub.Counts(),
		DailyUnique:   daily,
		CurrentUnique: current,
		AdPlaying:     view.AdPlaying,
		AdURL:         view.AdURL,
		BannerVisible: view.BannerVisible,
		BannerPos:     string(view.BannerPosition),
		BannerTitle:   view.BannerTitle,
		BannerText:    view.BannerText,
		Images:        s.display.Images(),
		Matches:       s.matches.Active(),
		MatchCapacity: s.matches.Capacity(),
	}
}

func (s *broadcastService) Matches() []domain.Match {
	return s.matches.Active()
}

func (s *broadcastService) MatchByID(id int) (domain.Match, bool) {
	return s.matches.Get(id)
}

func (s *broadcastService) requireAdmin(c *hub.Client) bool {
	if s.authority.IsAuthorized(c.ID) {
		return true
	}
	c.SendMessage(domain.NewErrorMessage(domain.ErrCodeUnauthorized, "not authorized"))
	return false
}

func (s *broadcastService) broadcastViewerCount(channel string) {
	s.hub.BroadcastToChannel(channel, &domain.ViewerCountMessage{
		Type:    domain.MsgTypeViewerCount,
		Channel: channel,
		Count:   s.hub.Count(channel),
	}, "")
}

// broadcastMatchList pushes the full active list to every connection. The
// schedule is public information, not an admin-only view.
func (s *broadcastService) broadcastMatchList() {
	s.hub.BroadcastAll(&domain.MatchListMessage{
		Type:    domain.MsgTypeMatchList,
		Matches: s.matches.Active(),
	}, "")
}

// publishStats pushes the full snapshot to the admin group. Full-state push
// keeps late admin joins and lost frames harmless.
func (s *broadcastService) publishStats() {
	stats := s.Stats()
	s.hub.BroadcastToAdmins(&stats)
}
