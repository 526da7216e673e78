package domain

// Platform identifies an external advertising or analytics platform.
type Platform string

const (
	PlatformGoogleAds           Platform = "google_ads"
	PlatformGoogleAnalytics     Platform = "google_analytics"
	PlatformGoogleSearchConsole Platform = "google_search_console"
	PlatformGoogleMyBusiness    Platform = "google_my_business"
	PlatformFacebook            Platform = "facebook"
	PlatformInstagram           Platform = "instagram"
)

// Provider groups platforms that share one OAuth application.
type Provider string

const (
	ProviderGoogle Provider = "google"
	ProviderMeta   Provider = "meta"
)

var platformNames = map[Platform]string{
	PlatformGoogleAds:           "Google Ads",
	PlatformGoogleAnalytics:     "Google Analytics",
	PlatformGoogleSearchConsole: "Google Search Console",
	PlatformGoogleMyBusiness:    "Google Business Profile",
	PlatformFacebook:            "Facebook Ads",
	PlatformInstagram:           "Instagram",
}

// AllPlatforms returns every supported platform in display order.
func AllPlatforms() []Platform {
	return []Platform{
		PlatformGoogleAds,
		PlatformGoogleAnalytics,
		PlatformGoogleSearchConsole,
		PlatformGoogleMyBusiness,
		PlatformFacebook,
		PlatformInstagram,
	}
}

// Valid reports whether p is a supported platform.
func (p Platform) Valid() bool {
	_, ok := platformNames[p]
	return ok
}

// Provider returns the OAuth provider behind the platform.
func (p Platform) Provider() Provider {
	switch p {
	case PlatformFacebook, PlatformInstagram:
		return ProviderMeta
	default:
		return ProviderGoogle
	}
}

// DisplayName returns a human-readable platform name.
func (p Platform) DisplayName() string {
	if n, ok := platformNames[p]; ok {
		return n
	}
	return string(p)
}

// IsPaid reports whether the platform reports ad spend.
func (p Platform) IsPaid() bool {
	return p == PlatformGoogleAds || p == PlatformFacebook
}
