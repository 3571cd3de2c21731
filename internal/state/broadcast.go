package state

import "sync"

// BannerPosition is the closed set of banner placements a client can render.
type BannerPosition string

const (
	PositionBottomRight BannerPosition = "bottom-right"
	PositionBottomLeft  BannerPosition = "bottom-left"
	PositionTopRight    BannerPosition = "top-right"
	PositionTopLeft     BannerPosition = "top-left"
	PositionCenter      BannerPosition = "center"
)

// DefaultBannerPosition is used when an operator supplies an unknown
// position. Fan-out stays non-blocking; bad input never errors here.
const DefaultBannerPosition = PositionBottomRight

func ParseBannerPosition(s string) BannerPosition {
	switch BannerPosition(s) {
	case PositionBottomRight, PositionBottomLeft, PositionTopRight, PositionTopLeft, PositionCenter:
		return BannerPosition(s)
	default:
		return DefaultBannerPosition
	}
}

// ChannelView is the full display state a late joiner needs to render what is
// currently live. Ad and banner are platform-wide; the image is per channel.
type ChannelView struct {
	AdPlaying      bool
	AdURL          string
	BannerVisible  bool
	BannerPosition BannerPosition
	BannerTitle    string
	BannerText     string
	ImageURL       string
}

// BroadcastState is the ephemeral display state pushed to viewers. There is
// no event log; reads at join time are the only catch-up mechanism, so every
// read takes the same lock as mutators.
type BroadcastState struct {
	mu sync.RWMutex

	adPlaying bool
	adURL     string

	bannerVisible  bool
	bannerPosition BannerPosition
	bannerTitle    string
	bannerText     string

	images map[string]string // channel -> image URL
}

func NewBroadcastState() *BroadcastState {
	return &BroadcastState{
		bannerPosition: DefaultBannerPosition,
		images:         make(map[string]string),
	}
}

// SetAd starts or stops the ad overlay. Stopping clears the URL so consumers
// can never render a stale one.
func (b *BroadcastState) SetAd(playing bool, url string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.adPlaying = playing
	if playing {
		b.adURL = url
	} else {
		b.adURL = ""
	}
}

func (b *BroadcastState) SetBanner(visible bool, position BannerPosition, title, text string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.bannerVisible = visible
	if visible {
		b.bannerPosition = position
		b.bannerTitle = title
		b.bannerText = text
	} else {
		b.bannerPosition = DefaultBannerPosition
		b.bannerTitle = ""
		b.bannerText = ""
	}
}

// SetImage sets or clears the overlay image for one channel. An empty URL
// hides the image.
func (b *BroadcastState) SetImage(channel, url string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if url == "" {
		delete(b.images, channel)
		return
	}
	b.images[channel] = url
}

// ChannelView returns the state a new member of channel must be told about.
func (b *BroadcastState) ChannelView(channel string) ChannelView {
	b.mu.RLock()
	defer b.mu.RUnlock()

	return ChannelView{
		AdPlaying:      b.adPlaying,
		AdURL:          b.adURL,
		BannerVisible:  b.bannerVisible,
		BannerPosition: b.bannerPosition,
		BannerTitle:    b.bannerTitle,
		BannerText:     b.bannerText,
		ImageURL:       b.images[channel],
	}
}

// Images returns a copy of the per-channel image map.
func (b *BroadcastState) Images() map[string]string {
	b.mu.RLock()
	defer b.mu.RUnlock()

	images := make(map[string]string, len(b.images))
	for ch, url := range b.images {
		images[ch] = url
	}
	return images
}
