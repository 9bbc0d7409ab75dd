package main

import (
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/common-nighthawk/go-figure"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/dayvoid97/gurkha-go/api"
	"github.com/dayvoid97/gurkha-go/credentials"
	"github.com/dayvoid97/gurkha-go/internal/config"
	"github.com/dayvoid97/gurkha-go/session"
	"github.com/dayvoid97/gurkha-go/transport"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})

	c := config.New()
	if c.GetEnv() == "DEV" {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	}

	app, err := newApp(c)
	if err != nil {
		log.Fatal().Err(err).Msg("startup failed")
	}

	if err := newRootCommand(app).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// app wires the credential store, session, transport and API client once so
// every command shares the same stack.
type app struct {
	config  config.Config
	session *session.AuthSession
	api     *api.Client
}

func newApp(c config.Config) (*app, error) {
	keys := credentials.Keys{
		Access:       c.GetAccessTokenKey(),
		Refresh:      c.GetRefreshTokenKey(),
		Notification: c.GetNotificationTokenKey(),
	}
	var repo credentials.Repo
	switch store := c.GetCredentialsStore(); store {
	case "sqlite":
		sqlRepo, err := credentials.NewSQLiteRepo(c.GetCredentialsPath(), keys)
		if err != nil {
			return nil, err
		}
		repo = sqlRepo
	case "file":
		repo = credentials.NewFileRepo(c.GetCredentialsPath(), keys)
	default:
		return nil, fmt.Errorf("unknown credentials store %q", store)
	}

	httpClient := &http.Client{Timeout: c.GetHTTPTimeout()}
	sess, err := session.New(repo, api.RefreshURL(c.GetAPIBaseURL()), session.WithHTTPClient(httpClient))
	if err != nil {
		return nil, err
	}
	tc, err := transport.New(sess, transport.WithBaseClient(httpClient))
	if err != nil {
		return nil, err
	}
	client, err := api.New(c.GetAPIBaseURL(), sess, tc)
	if err != nil {
		return nil, err
	}

	return &app{config: c, session: sess, api: client}, nil
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}
