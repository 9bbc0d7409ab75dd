// Package session owns the client's credential lifecycle. AuthSession is the
// single writer of the persisted access/refresh token pair: login stores it,
// Refresh rotates the access token, and any irrecoverable refresh failure
// clears it. Concurrent requests that each hit a 401 share one in-flight
// refresh instead of racing their own.
package session

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/dayvoid97/gurkha-go/credentials"
)

const defaultRefreshTimeout = 15 * time.Second

type refreshOutcome struct {
	token string
	err   error
}

// AuthSession mediates all access to the stored credential pair.
type AuthSession struct {
	repo       credentials.Repo
	refreshURL string
	httpClient *http.Client
	nowFunc    func() time.Time

	lock     sync.Mutex
	inflight chan struct{} // non-nil while a refresh is running; closed on completion
	last     refreshOutcome
}

type AuthSessionOption func(*AuthSession)

// WithHTTPClient sets the client used for the refresh call. The refresh call
// deliberately bypasses the authenticated transport — it must never recurse
// into another refresh.
func WithHTTPClient(client *http.Client) AuthSessionOption {
	return func(s *AuthSession) {
		s.httpClient = client
	}
}

// WithNowFunc sets the time source (primarily for testing expiry inspection).
func WithNowFunc(nowFunc func() time.Time) AuthSessionOption {
	return func(s *AuthSession) {
		s.nowFunc = nowFunc
	}
}

func New(repo credentials.Repo, refreshURL string, options ...AuthSessionOption) (*AuthSession, error) {
	if repo == nil {
		return nil, errors.New("[session.New] credentials repo is required")
	}
	if refreshURL == "" {
		return nil, errors.New("[session.New] refresh URL is required")
	}

	s := &AuthSession{
		repo:       repo,
		refreshURL: refreshURL,
		httpClient: &http.Client{Timeout: defaultRefreshTimeout},
		nowFunc:    time.Now,
	}
	for _, opt := range options {
		opt(s)
	}
	return s, nil
}

// AccessToken returns the current access token, or "" when not logged in.
func (s *AuthSession) AccessToken() string {
	pair, err := s.repo.Get()
	if err != nil {
		return ""
	}
	return pair.AccessToken
}

func (s *AuthSession) LoggedIn() bool {
	_, err := s.repo.Get()
	return err == nil
}

// Store persists a freshly minted credential pair (login path).
func (s *AuthSession) Store(pair *credentials.Pair) error {
	return errors.Wrap(s.repo.Upsert(pair), "[AuthSession.Store] upsert")
}

// Clear destroys the stored pair (logout path).
func (s *AuthSession) Clear() error {
	return errors.Wrap(s.repo.Clear(), "[AuthSession.Clear] clear")
}

// AccessTokenExpired inspects the stored access token's exp claim without
// verifying the signature — the token is otherwise opaque to the client.
// Tokens that don't parse or carry no expiry are treated as not expired and
// left for the backend to judge.
func (s *AuthSession) AccessTokenExpired() bool {
	pair, err := s.repo.Get()
	if err != nil || pair.AccessToken == "" {
		return false
	}

	claims := jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(pair.AccessToken, &claims); err != nil {
		return false
	}
	if claims.ExpiresAt == nil {
		return false
	}
	return s.nowFunc().After(claims.ExpiresAt.Time)
}

// Refresh exchanges the stored refresh token for a new access token and
// persists it. At most one refresh runs at a time: concurrent callers block on
// the in-flight attempt and share its outcome. Any failure — missing refresh
// token, transport error, non-2xx — clears the stored pair and reports
// AuthRequiredErr.
func (s *AuthSession) Refresh(ctx context.Context) (string, error) {
	s.lock.Lock()
	if s.inflight != nil {
		done := s.inflight
		s.lock.Unlock()
		select {
		case <-done:
		case <-ctx.Done():
			return "", ctx.Err()
		}
		s.lock.Lock()
		defer s.lock.Unlock()
		return s.last.token, s.last.err
	}

	done := make(chan struct{})
	s.inflight = done
	s.lock.Unlock()

	token, err := s.doRefresh(ctx)

	s.lock.Lock()
	s.last = refreshOutcome{token: token, err: err}
	s.inflight = nil
	s.lock.Unlock()
	close(done)

	return token, err
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type refreshResponse struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken,omitempty"`
}

func (s *AuthSession) doRefresh(ctx context.Context) (string, error) {
	pair, err := s.repo.Get()
	if err != nil || pair.RefreshToken == "" {
		return "", s.fail(errors.New("no refresh token stored"))
	}

	body, err := json.Marshal(refreshRequest{RefreshToken: pair.RefreshToken})
	if err != nil {
		return "", s.fail(errors.Wrap(err, "marshal refresh request"))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.refreshURL, bytes.NewReader(body))
	if err != nil {
		return "", s.fail(errors.Wrap(err, "build refresh request"))
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", s.fail(errors.Wrap(err, "refresh call"))
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", s.fail(errors.Wrapf(RefreshRejectedErr, "status %d", resp.StatusCode))
	}

	var refreshed refreshResponse
	if err := json.NewDecoder(resp.Body).Decode(&refreshed); err != nil {
		return "", s.fail(errors.Wrap(err, "decode refresh response"))
	}
	if refreshed.AccessToken == "" {
		return "", s.fail(errors.New("refresh response missing access token"))
	}

	updated := &credentials.Pair{
		AccessToken:       refreshed.AccessToken,
		RefreshToken:      pair.RefreshToken,
		NotificationToken: pair.NotificationToken,
	}
	if refreshed.RefreshToken != "" {
		updated.RefreshToken = refreshed.RefreshToken
	}
	if err := s.repo.Upsert(updated); err != nil {
		return "", s.fail(errors.Wrap(err, "persist refreshed pair"))
	}

	return refreshed.AccessToken, nil
}

// fail clears the stored pair and maps the underlying cause onto
// AuthRequiredErr so callers never see a raw transport error from the
// refresh path.
func (s *AuthSession) fail(cause error) error {
	log.Warn().Err(cause).Msg("session refresh failed, clearing stored credentials")
	if err := s.repo.Clear(); err != nil {
		log.Error().Err(err).Msg("failed to clear stored credentials")
	}
	return errors.Wrap(AuthRequiredErr, cause.Error())
}
