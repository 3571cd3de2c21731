package domain

// WebSocket message types from client.
const (
	MsgTypeJoin             = "join"
	MsgTypeAuth             = "auth"
	MsgTypeAdminJoin        = "admin_join"
	MsgTypeRedirect         = "redirect"
	MsgTypeControlAd        = "control_ad"
	MsgTypeControlBanner    = "control_banner"
	MsgTypeControlImage     = "control_image"
	MsgTypeAddMatch         = "add_match"
	MsgTypeEditMatch        = "edit_match"
	MsgTypeDeleteMatch      = "delete_match"
	MsgTypeGetMatches       = "get_matches"
	MsgTypeGetMatchByID     = "get_match_by_id"
	MsgTypeGetMatchByNumber = "get_match_by_number"
	MsgTypePing             = "ping"
)

// WebSocket message types to client.
const (
	MsgTypeJoined      = "joined"
	MsgTypeViewerCount = "viewer_count"
	MsgTypeAuthResult  = "auth_result"
	MsgTypeUpdateStats = "update_stats"
	MsgTypePlayAd      = "play_ad"
	MsgTypeStopAd      = "stop_ad"
	MsgTypeShowBanner  = "show_banner"
	MsgTypeHideBanner  = "hide_banner"
	MsgTypeShowImage   = "show_image"
	MsgTypeHideImage   = "hide_image"
	MsgTypeMatchList   = "match_list"
	MsgTypeMatchData   = "match_data"
	MsgTypeError       = "error"
	MsgTypePong        = "pong"
)

// Control actions.
const (
	ActionPlay = "play"
	ActionStop = "stop"
	ActionShow = "show"
	ActionHide = "hide"
)

// Error codes
const (
	ErrCodeUnauthorized     = "UNAUTHORIZED"
	ErrCodeUnknownChannel   = "UNKNOWN_CHANNEL"
	ErrCodeNotFound         = "NOT_FOUND"
	ErrCodeCapacityExceeded = "CAPACITY_EXCEEDED"
	ErrCodeBadRequest       = "BAD_REQUEST"
	ErrCodeInternalError    = "INTERNAL_ERROR"
)

// BaseMessage is the base structure for all WebSocket messages.
type BaseMessage struct {
	Type string `json:"type"`
}

// Client -> Server messages

type JoinMessage struct {
	Type    string `json:"type"`
	Channel string `json:"channel"`
}

type AuthMessage struct {
	Type     string `json:"type"`
	Password string `json:"password"`
}

type RedirectMessage struct {
	Type    string `json:"type"`
	Channel string `json:"channel"`
	URL     string `json:"url"`
}

type ControlAdMessage struct {
	Type   string `json:"type"`
	Action string `json:"action"`
	URL    string `json:"url,omitempty"`
}

type ControlBannerMessage struct {
	Type     string `json:"type"`
	Action   string `json:"action"`
	Position string `json:"position,omitempty"`
	Title    string `json:"title,omitempty"`
	Text     string `json:"text,omitempty"`
}

type ControlImageMessage struct {
	Type    string `json:"type"`
	Channel string `json:"channel"`
	Action  string `json:"action"`
	URL     string `json:"url,omitempty"`
}

type AddMatchMessage struct {
	Type string `json:"type"`
	MatchFields
}

type EditMatchMessage struct {
	Type string `json:"type"`
	ID   int    `json:"id"`
	MatchFields
}

type DeleteMatchMessage struct {
	Type string `json:"type"`
	ID   int    `json:"id"`
}

type GetMatchMessage struct {
	Type   string `json:"type"`
	ID     int    `json:"id,omitempty"`
	Number int    `json:"number,omitempty"`
}

// Server -> Client messages

type JoinedMessage struct {
	Type    string `json:"type"`
	Channel string `json:"channel"`
	Viewers int    `json:"viewers"`
}

type ViewerCountMessage struct {
	Type    string `json:"type"`
	Channel string `json:"channel"`
	Count   int    `json:"count"`
}

type AuthResultMessage struct {
	Type    string `json:"type"`
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

type RedirectOut struct {
	Type string `json:"type"`
	URL  string `json:"url"`
}

type AdOut struct {
	Type string `json:"type"`
	URL  string `json:"url,omitempty"`
}

type BannerOut struct {
	Type     string `json:"type"`
	Position string `json:"position,omitempty"`
	Title    string `json:"title,omitempty"`
	Text     string `json:"text,omitempty"`
}

type ImageOut struct {
	Type string `json:"type"`
	URL  string `json:"url,omitempty"`
}

type MatchListMessage struct {
	Type    string  `json:"type"`
	Matches []Match `json:"matches"`
}

type MatchDataMessage struct {
	Type  string `json:"type"`
	Match *Match `json:"match,omitempty"`
	Found bool   `json:"found"`
}

// StatsMessage is the full snapshot pushed to the admin group after every
// admin-observable mutation. Full-state push, not a delta.
type StatsMessage struct {
	Type          string            `json:"type"`
	Channels      map[string]int    `json:"channels"`
	DailyUnique   int               `json:"daily_unique"`
	CurrentUnique int               `json:"current_unique"`
	AdPlaying     bool              `json:"ad_playing"`
	AdURL         string            `json:"ad_url,omitempty"`
	BannerVisible bool              `json:"banner_visible"`
	BannerPos     string            `json:"banner_position,omitempty"`
	BannerTitle   string            `json:"banner_title,omitempty"`
	BannerText    string            `json:"banner_text,omitempty"`
	Images        map[string]string `json:"images,omitempty"`
	Matches       []Match           `json:"matches"`
	MatchCapacity int               `json:"match_capacity"`
}

type ErrorMessage struct {
	Type    string `json:"type"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func NewErrorMessage(code, message string) *ErrorMessage {
	return &ErrorMessage{
		Type:    MsgTypeError,
		Code:    code,
		Message: message,
	}
}
