package session_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"github.com/dayvoid97/gurkha-go/credentials"
	"github.com/dayvoid97/gurkha-go/session"
)

func seededRepo(t *testing.T) credentials.Repo {
	t.Helper()
	repo := credentials.NewInMemoryRepo()
	require.NoError(t, repo.Upsert(&credentials.Pair{
		AccessToken:  "stale-access",
		RefreshToken: "refresh-1",
	}))
	return repo
}

func TestRefreshPersistsNewAccessToken(t *testing.T) {
	var gotRefreshToken string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			RefreshToken string `json:"refreshToken"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		gotRefreshToken = body.RefreshToken
		json.NewEncoder(w).Encode(map[string]string{"accessToken": "fresh-access"})
	}))
	defer srv.Close()

	repo := seededRepo(t)
	sess, err := session.New(repo, srv.URL)
	require.NoError(t, err)

	token, err := sess.Refresh(context.Background())
	require.NoError(t, err)
	require.Equal(t, "fresh-access", token)
	require.Equal(t, "refresh-1", gotRefreshToken)

	pair, err := repo.Get()
	require.NoError(t, err)
	require.Equal(t, "fresh-access", pair.AccessToken)
	require.Equal(t, "refresh-1", pair.RefreshToken, "refresh token kept when the server does not rotate it")
}

func TestRefreshAdoptsRotatedRefreshToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{
			"accessToken":  "fresh-access",
			"refreshToken": "refresh-2",
		})
	}))
	defer srv.Close()

	repo := seededRepo(t)
	sess, err := session.New(repo, srv.URL)
	require.NoError(t, err)

	_, err = sess.Refresh(context.Background())
	require.NoError(t, err)

	pair, err := repo.Get()
	require.NoError(t, err)
	require.Equal(t, "refresh-2", pair.RefreshToken)
}

func TestRefreshFailureClearsCredentials(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusForbidden)
	}))
	defer srv.Close()

	repo := seededRepo(t)
	sess, err := session.New(repo, srv.URL)
	require.NoError(t, err)

	_, err = sess.Refresh(context.Background())
	require.ErrorIs(t, err, session.AuthRequiredErr)

	_, err = repo.Get()
	require.ErrorIs(t, err, credentials.NotLoggedInErr)
}

func TestRefreshNetworkFailureReportsAuthRequired(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // connection refused from here on

	repo := seededRepo(t)
	sess, err := session.New(repo, srv.URL)
	require.NoError(t, err)

	_, err = sess.Refresh(context.Background())
	require.ErrorIs(t, err, session.AuthRequiredErr, "transport failures on the refresh path surface as auth-required")

	_, err = repo.Get()
	require.ErrorIs(t, err, credentials.NotLoggedInErr)
}

func TestRefreshWithoutStoredTokenReportsAuthRequired(t *testing.T) {
	sess, err := session.New(credentials.NewInMemoryRepo(), "http://localhost:0/refresh")
	require.NoError(t, err)

	_, err = sess.Refresh(context.Background())
	require.ErrorIs(t, err, session.AuthRequiredErr)
}

func TestConcurrentRefreshesShareOneCall(t *testing.T) {
	var calls atomic.Int64
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		<-release
		json.NewEncoder(w).Encode(map[string]string{"accessToken": "fresh-access"})
	}))
	defer srv.Close()

	repo := seededRepo(t)
	sess, err := session.New(repo, srv.URL)
	require.NoError(t, err)

	const waiters = 8
	var wg sync.WaitGroup
	tokens := make([]string, waiters)
	errs := make([]error, waiters)
	for i := 0; i < waiters; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			tokens[i], errs[i] = sess.Refresh(context.Background())
		}(i)
	}

	// Let every goroutine reach Refresh before the server responds.
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	require.Equal(t, int64(1), calls.Load(), "concurrent callers must share a single refresh call")
	for i := 0; i < waiters; i++ {
		require.NoError(t, errs[i])
		require.Equal(t, "fresh-access", tokens[i])
	}
}

func TestAccessTokenExpired(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	makeToken := func(exp time.Time) string {
		token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
			Subject:   "user-1",
			ExpiresAt: jwt.NewNumericDate(exp),
		})
		signed, err := token.SignedString([]byte("test-secret"))
		require.NoError(t, err)
		return signed
	}

	cases := []struct {
		name    string
		access  string
		expired bool
	}{
		{name: "live token", access: makeToken(now.Add(10 * time.Minute)), expired: false},
		{name: "expired token", access: makeToken(now.Add(-10 * time.Minute)), expired: true},
		{name: "opaque token", access: "not-a-jwt", expired: false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			repo := credentials.NewInMemoryRepo()
			require.NoError(t, repo.Upsert(&credentials.Pair{AccessToken: tc.access, RefreshToken: "r"}))

			sess, err := session.New(repo, "http://localhost:0/refresh",
				session.WithNowFunc(func() time.Time { return now }))
			require.NoError(t, err)
			require.Equal(t, tc.expired, sess.AccessTokenExpired())
		})
	}
}

func TestStoreAndClear(t *testing.T) {
	repo := credentials.NewInMemoryRepo()
	sess, err := session.New(repo, "http://localhost:0/refresh")
	require.NoError(t, err)

	require.False(t, sess.LoggedIn())
	require.Empty(t, sess.AccessToken())

	require.NoError(t, sess.Store(&credentials.Pair{AccessToken: "a", RefreshToken: "r"}))
	require.True(t, sess.LoggedIn())
	require.Equal(t, "a", sess.AccessToken())

	require.NoError(t, sess.Clear())
	require.False(t, sess.LoggedIn())
}
