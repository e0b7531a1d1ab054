package entity

// Platform identifies the video hosting a URL belongs to.
type Platform string

const (
	PlatformYouTube  Platform = "youtube"
	PlatformVK       Platform = "vk"
	PlatformOK       Platform = "ok"
	PlatformRuTube   Platform = "rutube"
	PlatformDzen     Platform = "dzen"
	PlatformTelegram Platform = "telegram"
	PlatformUnknown  Platform = "unknown"
)

var platformLabels = map[Platform]string{
	PlatformYouTube:  "YouTube",
	PlatformVK:       "VK",
	PlatformOK:       "OK.ru",
	PlatformRuTube:   "RuTube",
	PlatformDzen:     "Dzen",
	PlatformTelegram: "Telegram",
	PlatformUnknown:  "Unknown",
}

// Label returns the display name used in the form and the CSV export.
func (p Platform) Label() string {
	if label, ok := platformLabels[p]; ok {
		return label
	}
	return platformLabels[PlatformUnknown]
}

// Known reports whether p is one of the supported platforms.
func (p Platform) Known() bool {
	_, ok := platformLabels[p]
	return ok && p != PlatformUnknown
}
