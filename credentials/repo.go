package credentials

import "errors"

var NotLoggedInErr = errors.New("not logged in")

// Pair is the session credential pair: a short-lived access token, the long-lived
// refresh token used to mint a new one, and an optional notification token.
// Values are opaque bearer strings.
type Pair struct {
	AccessToken       string
	RefreshToken      string
	NotificationToken string
}

// Keys names the storage keys the pair is persisted under. The names are
// configurable so an installation can share a store with the web frontend,
// which uses the camelCase defaults.
type Keys struct {
	Access       string
	Refresh      string
	Notification string
}

func DefaultKeys() Keys {
	return Keys{
		Access:       "accessToken",
		Refresh:      "refreshToken",
		Notification: "notificationToken",
	}
}

// Repo persists the credential pair. Get returns NotLoggedInErr when neither
// token is stored. Upsert replaces the stored pair as a unit, so a refreshed
// access token becomes visible atomically from the caller's perspective.
type Repo interface {
	Get() (*Pair, error)
	Upsert(*Pair) error
	Clear() error
}
