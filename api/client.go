// Package api holds the typed resource wrappers over the authenticated
// transport: thin request/response bindings for the backend endpoints the
// Financial Gurkha frontend consumes. Business logic lives server-side;
// these services only shape requests and decode responses.
package api

import (
	"strings"

	"github.com/pkg/errors"

	"github.com/dayvoid97/gurkha-go/session"
	"github.com/dayvoid97/gurkha-go/transport"
)

// RefreshPath is the fixed token-refresh endpoint, relative to the API base
// URL. The session must be constructed against the same path — see RefreshURL.
const RefreshPath = "/auth/refresh"

// RefreshURL builds the absolute refresh endpoint for a given API base URL.
func RefreshURL(baseURL string) string {
	return strings.TrimRight(baseURL, "/") + RefreshPath
}

// Client bundles one resource service per backend surface.
type Client struct {
	http    *transport.Client
	session *session.AuthSession
	baseURL string

	Auth      *AuthService
	Profile   *ProfileService
	Explore   *ExploreService
	Cards     *CardsService
	Wins      *WinsService
	Comments  *CommentsService
	Messaging *MessagingService
	Ads       *AdsService
}

func New(baseURL string, sess *session.AuthSession, httpClient *transport.Client) (*Client, error) {
	if baseURL == "" {
		return nil, errors.New("[api.New] base URL is required")
	}
	if sess == nil {
		return nil, errors.New("[api.New] session is required")
	}
	if httpClient == nil {
		return nil, errors.New("[api.New] transport client is required")
	}

	c := &Client{
		http:    httpClient,
		session: sess,
		baseURL: strings.TrimRight(baseURL, "/"),
	}
	c.Auth = &AuthService{client: c}
	c.Profile = &ProfileService{client: c}
	c.Explore = &ExploreService{client: c}
	c.Cards = &CardsService{client: c}
	c.Wins = &WinsService{client: c}
	c.Comments = &CommentsService{client: c}
	c.Messaging = &MessagingService{client: c}
	c.Ads = &AdsService{client: c}
	return c, nil
}

func (c *Client) url(path string) string {
	return c.baseURL + path
}
