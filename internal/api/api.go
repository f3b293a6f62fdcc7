// Package api exposes the HTTP JSON surface and the websocket feed the web
// client talks to.
package api

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/shiomura/utakai/internal/errors"
	"github.com/shiomura/utakai/internal/evidence"
	"github.com/shiomura/utakai/internal/feed"
	"github.com/shiomura/utakai/internal/lookup"
	"github.com/shiomura/utakai/internal/session"
)

type Config struct {
	Engine     *gin.Engine
	Store      *session.Service
	Feed       *feed.Service
	Evidence   *evidence.Store
	Songs      *lookup.SongClient
	Recognizer lookup.Recognizer
	Passphrase string
}

type API struct {
	store      *session.Service
	feed       *feed.Service
	evidence   *evidence.Store
	songs      *lookup.SongClient
	recognizer lookup.Recognizer
	passphrase string

	hub *hub
}

func New(c Config) *API {
	a := &API{
		store:      c.Store,
		feed:       c.Feed,
		evidence:   c.Evidence,
		songs:      c.Songs,
		recognizer: c.Recognizer,
		passphrase: c.Passphrase,
		hub:        newHub(),
	}

	e := c.Engine

	e.GET("/healthz", a.Healthz)
	e.GET("/ws", a.SubscribeWS)

	v1 := e.Group("/api/v1", a.passphraseGate())

	v1.GET("/sessions", a.ListSessions)
	v1.POST("/sessions", a.SaveSession)
	v1.GET("/sessions/:id", a.GetSession)
	v1.PUT("/sessions/:id", a.SaveSession)
	v1.POST("/sessions/:id/delete", a.SoftDeleteSession)
	v1.POST("/sessions/:id/restore", a.RestoreSession)
	v1.DELETE("/sessions/:id", a.HardDeleteSession)
	v1.GET("/sessions/:id/ranking", a.GetRanking)
	v1.GET("/handicaps", a.GetLastHandicaps)

	v1.GET("/roster", a.GetRoster)
	v1.POST("/roster", a.AppendRosterName)

	v1.GET("/songs/search", a.SearchSongs)
	v1.POST("/recognitions", a.RecognizeScore)
	v1.POST("/evidence", a.UploadEvidence)
	v1.GET("/evidence/:id", a.GetEvidence)

	return a
}

func (a *API) Healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// passphraseGate is the static shared-secret check the whole tool sits
// behind. It is a gate for a trusted friend group, not an auth model.
func (a *API) passphraseGate() gin.HandlerFunc {
	return func(c *gin.Context) {
		if a.passphrase == "" {
			c.Next()
			return
		}

		if c.GetHeader("X-Passphrase") == a.passphrase {
			c.Next()
			return
		}

		e := errors.New(errors.CodeUnauthenticated,
			errors.WithMessagef("bad or missing passphrase"))
		c.AbortWithStatusJSON(e.HTTPStatusCode(), e)
	}
}

// fail converts any error into a coded JSON response. Nothing is fatal past
// this point: the worst outcome is an unsaved edit the client can retry.
func (a *API) fail(c *gin.Context, err error) {
	e := errors.Convert(err)
	if e.Code == errors.CodeInternal {
		slog.ErrorContext(c.Request.Context(), "api: request failed",
			"path", c.FullPath(),
			"error", err,
		)
	}

	c.JSON(e.HTTPStatusCode(), e)
}
