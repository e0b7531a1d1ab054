// Package detect classifies submitted URLs into platforms and pulls the
// platform specific identifiers (video IDs, object keys) out of them.
package detect

import (
	"net"
	"net/url"
	"regexp"
	"strings"

	"github.com/vadimbarashkov/viewcounter/internal/entity"
)

type preservedParam struct {
	domain string
	names  []string
}

// preservedParams lists query parameters that carry the object identifier
// and therefore survive normalization. A domain also covers its subdomains.
var preservedParams = []preservedParam{
	{"youtube.com", []string{"v"}},
	{"vk.com", []string{"z"}},
	{"vkvideo.ru", []string{"z"}},
}

// keptParams returns the identifier parameters for host.
func keptParams(host string) []string {
	host = strings.ToLower(host)
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	for _, p := range preservedParams {
		if host == p.domain || strings.HasSuffix(host, "."+p.domain) {
			return p.names
		}
	}
	return nil
}

type platformRule struct {
	platform entity.Platform
	needles  []string
}

// rules are matched in order, the first hit wins.
var rules = []platformRule{
	{entity.PlatformYouTube, []string{"youtu"}},
	{entity.PlatformVK, []string{"vk.com", "vkvideo.ru", "vk.ru"}},
	{entity.PlatformOK, []string{"ok.ru", "odnoklassniki"}},
	{entity.PlatformRuTube, []string{"rutube.ru"}},
	{entity.PlatformDzen, []string{"dzen.ru", "zen.yandex"}},
	{entity.PlatformTelegram, []string{"t.me/", "telegram.me/"}},
}

// NormalizeURL trims the input and drops its query and fragment so that
// tracking parameters such as ?share_to= do not affect scraping.
// Parameters that identify the object (YouTube v, VK z) are kept.
func NormalizeURL(raw string) string {
	raw = strings.TrimSpace(raw)

	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return raw
	}

	kept := url.Values{}
	for _, name := range keptParams(u.Host) {
		if v := u.Query().Get(name); v != "" {
			kept.Set(name, v)
		}
	}

	u.RawQuery = kept.Encode()
	u.Fragment = ""
	u.RawFragment = ""

	return u.String()
}

// Platform classifies rawURL by case-insensitive substring match.
func Platform(rawURL string) entity.Platform {
	lower := strings.ToLower(rawURL)

	for _, rule := range rules {
		for _, needle := range rule.needles {
			if strings.Contains(lower, needle) {
				return rule.platform
			}
		}
	}

	return entity.PlatformUnknown
}

var (
	youTubeBareID   = regexp.MustCompile(`^[A-Za-z0-9_\-]{6,}$`)
	youTubePatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?:https?://)?(?:www\.)?youtube\.com/watch\?(?:.*&)?v=([A-Za-z0-9_\-]{6,})`),
		regexp.MustCompile(`(?:https?://)?(?:www\.)?youtu\.be/([A-Za-z0-9_\-]{6,})`),
		regexp.MustCompile(`(?:https?://)?(?:m\.)?youtube\.com/watch\?(?:.*&)?v=([A-Za-z0-9_\-]{6,})`),
		regexp.MustCompile(`(?:https?://)?(?:www\.|m\.)?youtube\.com/shorts/([A-Za-z0-9_\-]{6,})`),
		regexp.MustCompile(`(?:https?://)?(?:www\.)?youtube\.com/embed/([A-Za-z0-9_\-]{6,})`),
		regexp.MustCompile(`(?:https?://)?(?:www\.)?youtube\.com/live/([A-Za-z0-9_\-]{6,})`),
	}
)

// YouTubeID returns the video ID of a YouTube URL. A bare ID is accepted
// as is. An empty string is returned when nothing matches.
func YouTubeID(token string) string {
	token = strings.TrimSpace(token)
	if youTubeBareID.MatchString(token) {
		return token
	}

	for _, p := range youTubePatterns {
		if m := p.FindStringSubmatch(token); m != nil {
			return m[1]
		}
	}

	return ""
}

// VK object kinds understood by the API client.
const (
	VKVideo = "video"
	VKWall  = "wall"
)

var vkObject = regexp.MustCompile(`(video|clip|wall)(-?\d+_\d+)`)

// VKObject extracts the object kind and "<owner>_<id>" key from a VK URL.
// Clips are videos as far as the API is concerned.
func VKObject(rawURL string) (kind, key string, ok bool) {
	decoded, err := url.QueryUnescape(rawURL)
	if err != nil {
		decoded = rawURL
	}

	m := vkObject.FindStringSubmatch(decoded)
	if m == nil {
		return "", "", false
	}

	kind = m[1]
	if kind == "clip" {
		kind = VKVideo
	}

	return kind, m[2], true
}

var telegramPost = regexp.MustCompile(`(?i)(?:t|telegram)\.me/(?:s/)?([A-Za-z0-9_]{3,})/(\d+)`)

// TelegramPost extracts the channel name and post number of a public
// Telegram post URL.
func TelegramPost(rawURL string) (channel, post string, ok bool) {
	m := telegramPost.FindStringSubmatch(rawURL)
	if m == nil {
		return "", "", false
	}
	return m[1], m[2], true
}

// SplitLines turns textarea input into a list of non-empty trimmed lines.
func SplitLines(text string) []string {
	var lines []string

	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			lines = append(lines, line)
		}
	}

	return lines
}
