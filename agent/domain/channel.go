package domain

import "strings"

type ChannelType string

const (
	ChannelWhatsApp      ChannelType = "WHATSAPP"
	ChannelAppLogin      ChannelType = "APP_LOGIN"
	ChannelInstagram     ChannelType = "INSTAGRAM"
	ChannelTwitter       ChannelType = "TWITTER"
	ChannelFacebook      ChannelType = "FACEBOOK"
	ChannelLinkedIn      ChannelType = "LINKEDIN"
	ChannelReclameAqui   ChannelType = "RECLAME_AQUI"
	ChannelConsumidorGov ChannelType = "CONSUMIDOR_GOV"
	ChannelTikTok        ChannelType = "TIKTOK"
	ChannelYouTube       ChannelType = "YOUTUBE"
	ChannelReddit        ChannelType = "REDDIT"
	ChannelEmail         ChannelType = "EMAIL"
	ChannelUnknown       ChannelType = "UNKNOWN"
)

var knownChannels = map[ChannelType]struct{}{
	ChannelWhatsApp:      {},
	ChannelAppLogin:      {},
	ChannelInstagram:     {},
	ChannelTwitter:       {},
	ChannelFacebook:      {},
	ChannelLinkedIn:      {},
	ChannelReclameAqui:   {},
	ChannelConsumidorGov: {},
	ChannelTikTok:        {},
	ChannelYouTube:       {},
	ChannelReddit:        {},
	ChannelEmail:         {},
	ChannelUnknown:       {},
}

// ParseChannelType maps a free-form platform label onto the closed channel set.
// Unrecognized labels map to ChannelUnknown and ok=false.
func ParseChannelType(platform string) (ChannelType, bool) {
	key := strings.ToUpper(strings.TrimSpace(platform))
	if key == "" {
		return ChannelUnknown, false
	}
	ch := ChannelType(key)
	if _, ok := knownChannels[ch]; !ok {
		return ChannelUnknown, false
	}
	return ch, true
}

func (c ChannelType) Valid() bool {
	_, ok := knownChannels[c]
	return ok
}

// IsComplaintPlatform reports whether the channel is a public complaint portal.
func (c ChannelType) IsComplaintPlatform() bool {
	return c == ChannelReclameAqui || c == ChannelConsumidorGov
}
