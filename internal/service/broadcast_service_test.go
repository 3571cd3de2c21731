package service

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/onemedia/broadcast-service/internal/config"
	"github.com/onemedia/broadcast-service/internal/domain"
	"github.com/onemedia/broadcast-service/internal/hub"
	"github.com/onemedia/broadcast-service/internal/state"
)

const testSecret = "modkit-secret"

type fixture struct {
	hub       *hub.Hub
	svc       BroadcastService
	authority *state.Authority
	display   *state.BroadcastState
	matches   *state.MatchRegistry

	nextID int
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	wsHub := hub.NewHub(testWSConfig(), []string{"oneevent1", "oneevent2", "oneevent3"})
	authority := state.NewAuthority(testSecret)
	display := state.NewBroadcastState()
	matches := state.NewMatchRegistry(5)
	visitors := state.NewVisitorTracker(time.Now())

	svc := NewBroadcastService(wsHub, authority, display, matches, visitors)
	go wsHub.Run()

	return &fixture{
		hub:       wsHub,
		svc:       svc,
		authority: authority,
		display:   display,
		matches:   matches,
	}
}

func testWSConfig() config.WebSocketConfig {
	return config.WebSocketConfig{
		PingInterval:   30 * time.Second,
		PongWait:       60 * time.Second,
		WriteWait:      10 * time.Second,
		MaxMessageSize: 4096,
	}
}

// connect registers a client with its own origin and runs the connect hook,
// the way the websocket handler does.
func (f *fixture) connect(t *testing.T) *hub.Client {
	t.Helper()

	f.nextID++
	id := fmt.Sprintf("conn-%d", f.nextID)
	origin := fmt.Sprintf("203.0.113.%d", f.nextID)

	c := hub.NewClient(id, origin, f.hub, nil, testWSConfig())
	f.hub.Register(c)

	deadline := time.Now().Add(time.Second)
	for !f.hub.Contains(id) {
		if time.Now().After(deadline) {
			t.Fatalf("client %s never registered", id)
		}
		time.Sleep(time.Millisecond)
	}

	f.svc.HandleConnect(context.Background(), c)
	return c
}

func (f *fixture) authenticate(t *testing.T, c *hub.Client) {
	t.Helper()
	f.svc.HandleAuth(context.Background(), c, testSecret)
	msg := recv(t, c)
	if msg["type"] != domain.MsgTypeAuthResult || msg["success"] != true {
		t.Fatalf("authentication failed: %v", msg)
	}
}

func recv(t *testing.T, c *hub.Client) map[string]interface{} {
	t.Helper()
	select {
	case data := <-c.Send:
		var msg map[string]interface{}
		if err := json.Unmarshal(data, &msg); err != nil {
			t.Fatalf("bad frame %q: %v", data, err)
		}
		return msg
	case <-time.After(time.Second):
		t.Fatal("no message queued")
		return nil
	}
}

func drain(c *hub.Client) {
	for {
		select {
		case <-c.Send:
		default:
			return
		}
	}
}

func TestAuth_WrongPassword(t *testing.T) {
	f := newFixture(t)
	c := f.connect(t)

	f.svc.HandleAuth(context.Background(), c, "letmein")
	msg := recv(t, c)
	if msg["type"] != domain.MsgTypeAuthResult || msg["success"] != false {
		t.Fatalf("expected failed auth_result, got %v", msg)
	}
	if f.authority.IsAuthorized(c.ID) {
		t.Error("wrong password must not grant authorization")
	}
}

func TestJoin_UnknownChannel(t *testing.T) {
	f := newFixture(t)
	c := f.connect(t)

	f.svc.HandleJoin(context.Background(), c, "oneevent9")
	msg := recv(t, c)
	if msg["type"] != domain.MsgTypeError || msg["code"] != domain.ErrCodeUnknownChannel {
		t.Fatalf("expected UNKNOWN_CHANNEL error, got %v", msg)
	}
	if f.hub.Count("oneevent9") != 0 {
		t.Error("failed join must not create membership")
	}
}

func TestUnauthorizedControlIsRejected(t *testing.T) {
	f := newFixture(t)
	c := f.connect(t)
	ctx := context.Background()

	f.svc.HandleControlAd(ctx, c, domain.ActionPlay, "http://x")
	msg := recv(t, c)
	if msg["code"] != domain.ErrCodeUnauthorized {
		t.Fatalf("expected UNAUTHORIZED, got %v", msg)
	}
	if f.display.ChannelView("oneevent1").AdPlaying {
		t.Error("rejected command must not mutate state")
	}

	f.svc.HandleAdminJoin(ctx, c)
	if msg := recv(t, c); msg["code"] != domain.ErrCodeUnauthorized {
		t.Fatalf("admin_join without grant: expected UNAUTHORIZED, got %v", msg)
	}

	f.svc.HandleAddMatch(ctx, c, domain.MatchFields{HomeTeam: "a", AwayTeam: "b"})
	if msg := recv(t, c); msg["code"] != domain.ErrCodeUnauthorized {
		t.Fatalf("add_match without grant: expected UNAUTHORIZED, got %v", msg)
	}
	if len(f.matches.Active()) != 0 {
		t.Error("rejected add must not occupy a slot")
	}
}

// The central consistency scenario: a viewer joining mid-ad is caught up at
// join time, and live mutations reach every current member.
func TestAdSnapshotOnJoin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	admin := f.connect(t)
	f.authenticate(t, admin)

	viewerA := f.connect(t)
	f.svc.HandleJoin(ctx, viewerA, "oneevent3")
	if msg := recv(t, viewerA); msg["type"] != domain.MsgTypeJoined || msg["viewers"] != float64(1) {
		t.Fatalf("expected joined with 1 viewer, got %v", msg)
	}
	if msg := recv(t, viewerA); msg["type"] != domain.MsgTypeViewerCount || msg["count"] != float64(1) {
		t.Fatalf("expected viewer_count 1, got %v", msg)
	}

	f.svc.HandleControlAd(ctx, admin, domain.ActionPlay, "http://x")
	if msg := recv(t, viewerA); msg["type"] != domain.MsgTypePlayAd || msg["url"] != "http://x" {
		t.Fatalf("member must receive the live play_ad, got %v", msg)
	}

	viewerB := f.connect(t)
	f.svc.HandleJoin(ctx, viewerB, "oneevent3")
	if msg := recv(t, viewerB); msg["type"] != domain.MsgTypeJoined {
		t.Fatalf("expected joined, got %v", msg)
	}
	// Snapshot-on-join replays the running ad to the late joiner only.
	if msg := recv(t, viewerB); msg["type"] != domain.MsgTypePlayAd || msg["url"] != "http://x" {
		t.Fatalf("late joiner must be reconciled with play_ad, got %v", msg)
	}

	drain(viewerA)
	drain(viewerB)

	f.svc.HandleControlAd(ctx, admin, domain.ActionStop, "")
	if msg := recv(t, viewerA); msg["type"] != domain.MsgTypeStopAd {
		t.Fatalf("viewer A: expected stop_ad, got %v", msg)
	}
	if msg := recv(t, viewerB); msg["type"] != domain.MsgTypeStopAd {
		t.Fatalf("viewer B: expected stop_ad, got %v", msg)
	}

	if view := f.display.ChannelView("oneevent3"); view.AdPlaying || view.AdURL != "" {
		t.Errorf("ad state must be cleared: %+v", view)
	}
}

func TestAdminJoinDeliversStatsSnapshot(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	admin := f.connect(t)
	f.authenticate(t, admin)

	f.svc.HandleAdminJoin(ctx, admin)
	msg := recv(t, admin)
	if msg["type"] != domain.MsgTypeUpdateStats {
		t.Fatalf("expected immediate stats snapshot, got %v", msg)
	}
	channels, ok := msg["channels"].(map[string]interface{})
	if !ok || len(channels) != 3 {
		t.Fatalf("snapshot must cover every declared channel: %v", msg["channels"])
	}
	if msg["match_capacity"] != float64(5) {
		t.Errorf("snapshot must report the schedule capacity, got %v", msg["match_capacity"])
	}

	// Every admin-observable mutation pushes a fresh snapshot.
	viewer := f.connect(t)
	if msg := recv(t, admin); msg["type"] != domain.MsgTypeUpdateStats {
		t.Fatalf("expected stats after a connect, got %v", msg)
	}

	f.svc.HandleJoin(ctx, viewer, "oneevent1")
	deadline := time.Now().Add(time.Second)
	for {
		msg = recv(t, admin)
		if msg["type"] == domain.MsgTypeUpdateStats {
			if channels := msg["channels"].(map[string]interface{}); channels["oneevent1"] == float64(1) {
				break
			}
		}
		if time.Now().After(deadline) {
			t.Fatal("stats never reflected the join")
		}
	}
}

func TestBannerFallbackPosition(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	admin := f.connect(t)
	f.authenticate(t, admin)

	viewer := f.connect(t)
	f.svc.HandleJoin(ctx, viewer, "oneevent1")
	drain(viewer)

	f.svc.HandleControlBanner(ctx, admin, domain.ActionShow, "diagonal", "Title", "Text")
	msg := recv(t, viewer)
	if msg["type"] != domain.MsgTypeShowBanner {
		t.Fatalf("expected show_banner, got %v", msg)
	}
	if msg["position"] != string(state.DefaultBannerPosition) {
		t.Errorf("unknown position must fall back to the default, got %v", msg["position"])
	}
}

func TestImageScopedToSingleChannel(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	admin := f.connect(t)
	f.authenticate(t, admin)

	v1 := f.connect(t)
	f.svc.HandleJoin(ctx, v1, "oneevent1")
	v2 := f.connect(t)
	f.svc.HandleJoin(ctx, v2, "oneevent2")
	drain(v1)
	drain(v2)

	f.svc.HandleControlImage(ctx, admin, "oneevent1", domain.ActionShow, "http://img.example/a.png")
	if msg := recv(t, v1); msg["type"] != domain.MsgTypeShowImage {
		t.Fatalf("target channel member: expected show_image, got %v", msg)
	}
	if len(v2.Send) != 0 {
		t.Error("image fan-out must not reach other channels")
	}

	f.svc.HandleControlImage(ctx, admin, "oneevent1", domain.ActionHide, "")
	if msg := recv(t, v1); msg["type"] != domain.MsgTypeHideImage {
		t.Fatalf("expected hide_image, got %v", msg)
	}
	if f.display.ChannelView("oneevent1").ImageURL != "" {
		t.Error("hide must clear the stored image")
	}
}

func TestRedirectTargetsOneChannel(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	admin := f.connect(t)
	f.authenticate(t, admin)

	v1 := f.connect(t)
	f.svc.HandleJoin(ctx, v1, "oneevent1")
	v2 := f.connect(t)
	f.svc.HandleJoin(ctx, v2, "oneevent2")
	drain(v1)
	drain(v2)

	f.svc.HandleRedirect(ctx, admin, "oneevent1", "http://next.example/stream")
	msg := recv(t, v1)
	if msg["type"] != domain.MsgTypeRedirect || msg["url"] != "http://next.example/stream" {
		t.Fatalf("expected redirect, got %v", msg)
	}
	if len(v2.Send) != 0 {
		t.Error("redirect must not reach other channels")
	}

	f.svc.HandleRedirect(ctx, admin, "oneevent9", "http://next.example/stream")
	if msg := recv(t, admin); msg["code"] != domain.ErrCodeUnknownChannel {
		t.Fatalf("expected UNKNOWN_CHANNEL, got %v", msg)
	}
}

func TestMatchLifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	admin := f.connect(t)
	f.authenticate(t, admin)

	viewer := f.connect(t)
	f.svc.HandleJoin(ctx, viewer, "oneevent1")
	drain(viewer)

	fields := func(n int) domain.MatchFields {
		return domain.MatchFields{HomeTeam: fmt.Sprintf("home-%d", n), AwayTeam: fmt.Sprintf("away-%d", n)}
	}

	for i := 0; i < 5; i++ {
		f.svc.HandleAddMatch(ctx, admin, fields(i))
		// The schedule is public: every mutation reaches every connection.
		if msg := recv(t, viewer); msg["type"] != domain.MsgTypeMatchList {
			t.Fatalf("expected match_list broadcast, got %v", msg)
		}
		if msg := recv(t, admin); msg["type"] != domain.MsgTypeMatchList {
			t.Fatalf("expected match_list broadcast to admin, got %v", msg)
		}
	}

	f.svc.HandleAddMatch(ctx, admin, fields(5))
	if msg := recv(t, admin); msg["code"] != domain.ErrCodeCapacityExceeded {
		t.Fatalf("expected CAPACITY_EXCEEDED, got %v", msg)
	}
	if _, ok := f.matches.Get(6); ok {
		t.Fatal("sixth add must not occupy anything")
	}
	if len(f.matches.Active()) != 5 {
		t.Fatalf("expected 5 active matches, got %d", len(f.matches.Active()))
	}

	f.svc.HandleDeleteMatch(ctx, admin, 3)
	if msg := recv(t, viewer); msg["type"] != domain.MsgTypeMatchList {
		t.Fatalf("expected match_list after delete, got %v", msg)
	}
	if _, ok := f.svc.MatchByID(3); ok {
		t.Fatal("deleted slot must be absent")
	}

	f.svc.HandleAddMatch(ctx, admin, fields(6))
	m, ok := f.svc.MatchByID(3)
	if !ok || m.HomeTeam != "home-6" {
		t.Fatalf("expected identifier 3 to be reused, got %v (ok=%v)", m, ok)
	}

	f.svc.HandleEditMatch(ctx, admin, 3, fields(7))
	m, _ = f.svc.MatchByID(3)
	if m.HomeTeam != "home-7" || m.WatchNumber != 3 {
		t.Errorf("edit must overwrite in place: %+v", m)
	}
}

func TestMatchValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	admin := f.connect(t)
	f.authenticate(t, admin)

	f.svc.HandleAddMatch(ctx, admin, domain.MatchFields{HomeTeam: "only-home"})
	if msg := recv(t, admin); msg["code"] != domain.ErrCodeBadRequest {
		t.Fatalf("expected BAD_REQUEST for missing away_team, got %v", msg)
	}

	f.svc.HandleEditMatch(ctx, admin, 1, domain.MatchFields{HomeTeam: "a", AwayTeam: "b"})
	if msg := recv(t, admin); msg["code"] != domain.ErrCodeNotFound {
		t.Fatalf("expected NOT_FOUND for empty slot, got %v", msg)
	}
}

func TestGetMatchAbsent(t *testing.T) {
	f := newFixture(t)
	c := f.connect(t)

	f.svc.HandleGetMatch(context.Background(), c, 2)
	msg := recv(t, c)
	if msg["type"] != domain.MsgTypeMatchData || msg["found"] != false {
		t.Fatalf("absence is data, not an error: %v", msg)
	}
}

// Transports may deliver a frame that was already in flight when the
// connection died. Every handler must treat it as a no-op.
func TestCommandAfterDisconnectIsIgnored(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	c := f.connect(t)
	f.hub.Unregister(c)
	deadline := time.Now().Add(time.Second)
	for f.hub.Contains(c.ID) {
		if time.Now().After(deadline) {
			t.Fatal("client never unregistered")
		}
		time.Sleep(time.Millisecond)
	}

	f.svc.HandleAuth(ctx, c, testSecret)
	f.svc.HandleJoin(ctx, c, "oneevent1")
	f.svc.HandleGetMatches(ctx, c)

	if f.hub.Count("oneevent1") != 0 {
		t.Error("late join must not create membership")
	}
}

func TestDisconnectCleanup(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	stayer := f.connect(t)
	f.svc.HandleJoin(ctx, stayer, "oneevent1")
	drain(stayer)

	leaver := f.connect(t)
	f.svc.HandleAuth(ctx, leaver, testSecret)
	f.svc.HandleJoin(ctx, leaver, "oneevent1")
	drain(leaver)
	drain(stayer)

	f.hub.Unregister(leaver)
	deadline := time.Now().Add(time.Second)
	for f.hub.Contains(leaver.ID) {
		if time.Now().After(deadline) {
			t.Fatal("client never unregistered")
		}
		time.Sleep(time.Millisecond)
	}

	// Remaining member sees the corrected count.
	msg := recv(t, stayer)
	if msg["type"] != domain.MsgTypeViewerCount || msg["count"] != float64(1) {
		t.Fatalf("expected viewer_count 1 after disconnect, got %v", msg)
	}

	if f.authority.IsAuthorized(leaver.ID) {
		t.Error("admin grant must be revoked on disconnect")
	}

	stats := f.svc.Stats()
	if stats.Channels["oneevent1"] != 1 {
		t.Errorf("expected 1 member left, got %d", stats.Channels["oneevent1"])
	}
	if stats.CurrentUnique != 1 {
		t.Errorf("expected 1 current unique origin, got %d", stats.CurrentUnique)
	}
	if stats.DailyUnique != 2 {
		t.Errorf("daily origins are monotonic within a day, expected 2, got %d", stats.DailyUnique)
	}
}
