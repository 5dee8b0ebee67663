package model

import (
	"fmt"
	"strings"
)

type Platform string

const (
	PlatformLinkedIn  Platform = "linkedin"
	PlatformInstagram Platform = "instagram"
	PlatformYouTube   Platform = "youtube"
)

// Platforms lists every supported platform in display order.
var Platforms = []Platform{PlatformLinkedIn, PlatformInstagram, PlatformYouTube}

func ParsePlatform(s string) (Platform, error) {
	p := Platform(strings.ToLower(strings.TrimSpace(s)))
	switch p {
	case PlatformLinkedIn, PlatformInstagram, PlatformYouTube:
		return p, nil
	}
	return "", fmt.Errorf("unknown platform %q (supported: linkedin, instagram, youtube)", s)
}

func (p Platform) String() string {
	return string(p)
}
