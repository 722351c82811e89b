package playback

import (
	"net/url"
	"regexp"
	"strings"
)

// SearchPlatform is a Lavalink search prefix.
type SearchPlatform string

const (
	PlatformYouTube    SearchPlatform = "ytsearch"
	PlatformSoundCloud SearchPlatform = "scsearch"
)

var youtubeURL = regexp.MustCompile(`(?i)^(?:https?://)?(?:www\.|music\.|m\.)?(youtube\.com|youtu\.be)/\S+`)

// ParsePlatform maps a user or config value to a search prefix. Unknown
// values yield fallback.
func ParsePlatform(s string, fallback SearchPlatform) SearchPlatform {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "youtube", "yt", string(PlatformYouTube):
		return PlatformYouTube
	case "soundcloud", "sc", string(PlatformSoundCloud):
		return PlatformSoundCloud
	}
	return fallback
}

// Identifier builds what is sent to /v4/loadtracks: URLs pass through (YouTube
// links are cleaned), anything else becomes a prefixed search.
func Identifier(input string, platform SearchPlatform) string {
	input = strings.TrimSpace(input)
	if isURL(input) {
		if isYouTubeURL(input) {
			return CleanVideoURL(input)
		}
		return input
	}
	if platform == "" {
		platform = PlatformYouTube
	}
	return string(platform) + ":" + input
}

func isURL(s string) bool {
	s = strings.ToLower(s)
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

func isYouTubeURL(s string) bool {
	return youtubeURL.MatchString(s)
}

// CleanVideoURL strips tracking parameters from YouTube links, keeping the
// video and playlist ids.
func CleanVideoURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}

	switch host := strings.ToLower(u.Hostname()); host {
	case "youtu.be":
		vid := strings.Trim(u.Path, "/")
		if vid == "" {
			return raw
		}
		return "https://youtu.be/" + vid

	case "www.youtube.com", "youtube.com", "music.youtube.com", "m.youtube.com":
		if u.Path != "/watch" && u.Path != "/playlist" {
			return raw
		}
		q := u.Query()
		keep := url.Values{}
		for _, k := range []string{"v", "list"} {
			if v := q.Get(k); v != "" {
				keep.Set(k, v)
			}
		}
		if len(keep) == 0 {
			return raw
		}
		return "https://" + host + u.Path + "?" + keep.Encode()
	}
	return raw
}
