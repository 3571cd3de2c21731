package domain

// MatchFields are the operator-supplied attributes of a scheduled match.
// StartsAt is kept as the display string the operator entered; the hub never
// interprets it.
type MatchFields struct {
	HomeTeam    string `json:"home_team"`
	AwayTeam    string `json:"away_team"`
	HomeLogo    string `json:"home_logo,omitempty"`
	AwayLogo    string `json:"away_logo,omitempty"`
	League      string `json:"league,omitempty"`
	Category    string `json:"category,omitempty"`
	StartsAt    string `json:"starts_at,omitempty"`
	StreamURL   string `json:"stream_url,omitempty"`
	Description string `json:"description,omitempty"`
}

// Match is an occupied schedule slot. WatchNumber is the 1-based slot index
// and doubles as the public watch-page identifier; it never changes while the
// slot stays occupied.
type Match struct {
	MatchFields
	WatchNumber int `json:"watch_number"`
}
