package transport_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dayvoid97/gurkha-go/credentials"
	"github.com/dayvoid97/gurkha-go/session"
	"github.com/dayvoid97/gurkha-go/transport"
)

type fixture struct {
	repo    *credentials.InMemoryRepo
	client  *transport.Client
	apiHits atomic.Int64
	refresh atomic.Int64
	api     *httptest.Server
}

// newFixture wires an API endpoint that rejects the stale token with a 401
// and a refresh endpoint that mints "fresh-access".
func newFixture(t *testing.T, refreshStatus int) *fixture {
	t.Helper()
	f := &fixture{repo: credentials.NewInMemoryRepo()}

	require.NoError(t, f.repo.Upsert(&credentials.Pair{
		AccessToken:  "stale-access",
		RefreshToken: "refresh-1",
	}))

	f.api = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.apiHits.Add(1)
		if r.Header.Get("Authorization") != "Bearer fresh-access" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	}))
	t.Cleanup(f.api.Close)

	refreshSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.refresh.Add(1)
		if refreshStatus != http.StatusOK {
			w.WriteHeader(refreshStatus)
			return
		}
		json.NewEncoder(w).Encode(map[string]string{"accessToken": "fresh-access"})
	}))
	t.Cleanup(refreshSrv.Close)

	sess, err := session.New(f.repo, refreshSrv.URL)
	require.NoError(t, err)

	client, err := transport.New(sess)
	require.NoError(t, err)
	f.client = client
	return f
}

func TestDoRefreshesOnceAndRetries(t *testing.T) {
	f := newFixture(t, http.StatusOK)

	req, err := http.NewRequest(http.MethodGet, f.api.URL+"/profile", nil)
	require.NoError(t, err)

	resp, err := f.client.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, int64(2), f.apiHits.Load(), "original call plus exactly one retry")
	require.Equal(t, int64(1), f.refresh.Load(), "exactly one refresh call")

	pair, err := f.repo.Get()
	require.NoError(t, err)
	require.Equal(t, "fresh-access", pair.AccessToken)
}

func TestDoSkipsRefreshWhenTokenAccepted(t *testing.T) {
	f := newFixture(t, http.StatusOK)
	require.NoError(t, f.repo.Upsert(&credentials.Pair{
		AccessToken:  "fresh-access",
		RefreshToken: "refresh-1",
	}))

	req, err := http.NewRequest(http.MethodGet, f.api.URL+"/profile", nil)
	require.NoError(t, err)

	resp, err := f.client.Do(req)
	require.NoError(t, err)
	resp.Body.Close()

	require.Equal(t, int64(1), f.apiHits.Load())
	require.Equal(t, int64(0), f.refresh.Load())
}

func TestDoRefreshFailureClearsTokensAndReportsAuthRequired(t *testing.T) {
	f := newFixture(t, http.StatusForbidden)

	req, err := http.NewRequest(http.MethodGet, f.api.URL+"/profile", nil)
	require.NoError(t, err)

	_, err = f.client.Do(req)
	require.ErrorIs(t, err, session.AuthRequiredErr)

	var netErr *transport.NetworkError
	require.False(t, errors.As(err, &netErr), "refresh failure must never surface as a network error")

	_, err = f.repo.Get()
	require.ErrorIs(t, err, credentials.NotLoggedInErr)
	require.Equal(t, int64(1), f.apiHits.Load(), "no retry after a failed refresh")
}

func TestDoNeverRefreshesTwice(t *testing.T) {
	var apiHits, refreshHits atomic.Int64
	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		apiHits.Add(1)
		w.WriteHeader(http.StatusUnauthorized) // rejects every token
	}))
	defer api.Close()

	refreshSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		refreshHits.Add(1)
		json.NewEncoder(w).Encode(map[string]string{"accessToken": "fresh-access"})
	}))
	defer refreshSrv.Close()

	repo := credentials.NewInMemoryRepo()
	require.NoError(t, repo.Upsert(&credentials.Pair{AccessToken: "a", RefreshToken: "r"}))
	sess, err := session.New(repo, refreshSrv.URL)
	require.NoError(t, err)
	client, err := transport.New(sess)
	require.NoError(t, err)

	req, err := http.NewRequest(http.MethodGet, api.URL, nil)
	require.NoError(t, err)

	resp, err := client.Do(req)
	require.NoError(t, err)
	resp.Body.Close()

	require.Equal(t, http.StatusUnauthorized, resp.StatusCode, "second 401 is returned, not retried again")
	require.Equal(t, int64(2), apiHits.Load())
	require.Equal(t, int64(1), refreshHits.Load())
}

func TestDoReplaysBodyOnRetry(t *testing.T) {
	var bodies [][]byte
	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		bodies = append(bodies, body)
		if r.Header.Get("Authorization") != "Bearer fresh-access" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.WriteHeader(http.StatusCreated)
	}))
	defer api.Close()

	refreshSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"accessToken": "fresh-access"})
	}))
	defer refreshSrv.Close()

	repo := credentials.NewInMemoryRepo()
	require.NoError(t, repo.Upsert(&credentials.Pair{AccessToken: "stale", RefreshToken: "r"}))
	sess, err := session.New(repo, refreshSrv.URL)
	require.NoError(t, err)
	client, err := transport.New(sess)
	require.NoError(t, err)

	req, err := http.NewRequest(http.MethodPost, api.URL+"/wins", bytes.NewReader([]byte(`{"title":"w"}`)))
	require.NoError(t, err)

	resp, err := client.Do(req)
	require.NoError(t, err)
	resp.Body.Close()

	require.Equal(t, http.StatusCreated, resp.StatusCode)
	require.Len(t, bodies, 2)
	require.Equal(t, bodies[0], bodies[1], "retry carries the identical body")
}

func TestDoWrapsTransportFailures(t *testing.T) {
	repo := credentials.NewInMemoryRepo()
	sess, err := session.New(repo, "http://localhost:0/refresh")
	require.NoError(t, err)
	client, err := transport.New(sess)
	require.NoError(t, err)

	req, err := http.NewRequest(http.MethodGet, "http://localhost:0/unreachable", nil)
	require.NoError(t, err)

	_, err = client.Do(req)
	var netErr *transport.NetworkError
	require.True(t, errors.As(err, &netErr))
}

func TestDoJSONClassifiesUpstreamErrors(t *testing.T) {
	f := newFixture(t, http.StatusOK)
	missing := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"card not found"}`, http.StatusNotFound)
	}))
	defer missing.Close()

	err := f.client.DoJSON(context.Background(), http.MethodGet, missing.URL+"/cards/x", nil, nil)

	var upstream *transport.UpstreamError
	require.True(t, errors.As(err, &upstream))
	require.Equal(t, http.StatusNotFound, upstream.Status)
	require.True(t, upstream.NotFound())
	require.Contains(t, string(upstream.Body), "card not found")
}

func TestDoJSONDecodesResponse(t *testing.T) {
	f := newFixture(t, http.StatusOK)

	var out map[string]string
	err := f.client.DoJSON(context.Background(), http.MethodGet, f.api.URL+"/profile", nil, &out)
	require.NoError(t, err)
	require.Equal(t, "ok", out["status"])
}
