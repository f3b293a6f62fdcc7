package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/shiomura/utakai/internal/domain"
	"github.com/shiomura/utakai/internal/errors"
	"github.com/shiomura/utakai/internal/ranking"
)

var maxRoundScore = decimal.NewFromInt(100)

// ListSessions serves the history screen; ?trash=1 serves the trash screen.
func (a *API) ListSessions(c *gin.Context) {
	list := a.store.ListActive
	if c.Query("trash") == "1" {
		list = a.store.ListDeleted
	}

	sessions, err := list(c.Request.Context())
	if err != nil {
		a.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, sessions)
}

func (a *API) GetSession(c *gin.Context) {
	ss, err := a.store.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		a.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, ss)
}

// SaveSession is the single write primitive: a full-record upsert. POST
// creates (ids assigned server-side), PUT replaces the document for the path
// id. There is deliberately no partial update.
func (a *API) SaveSession(c *gin.Context) {
	var ss domain.Session
	if err := c.ShouldBindJSON(&ss); err != nil {
		a.fail(c, errors.New(errors.CodeInvalidArgument, errors.WithCause(err)))
		return
	}

	if id := c.Param("id"); id != "" {
		ss.ID = id
	}

	if err := validateSession(ss); err != nil {
		a.fail(c, err)
		return
	}

	saved, err := a.store.Save(c.Request.Context(), ss)
	if err != nil {
		a.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, saved)
}

func (a *API) SoftDeleteSession(c *gin.Context) {
	ss, err := a.store.SoftDelete(c.Request.Context(), c.Param("id"))
	if err != nil {
		a.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, ss)
}

func (a *API) RestoreSession(c *gin.Context) {
	ss, err := a.store.Restore(c.Request.Context(), c.Param("id"))
	if err != nil {
		a.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, ss)
}

func (a *API) HardDeleteSession(c *gin.Context) {
	if err := a.store.HardDelete(c.Request.Context(), c.Param("id")); err != nil {
		a.fail(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// GetRanking computes the session standings on read. Ranks are never stored.
func (a *API) GetRanking(c *gin.Context) {
	ss, err := a.store.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		a.fail(c, err)
		return
	}

	items := ranking.GenerateRanking(ss.Participants)
	if items == nil {
		items = []domain.RankingItem{}
	}

	c.JSON(http.StatusOK, gin.H{
		"sessionId": ss.ID,
		"items":     items,
	})
}

// GetLastHandicaps serves the handicap seeds for session setup: each known
// name's NextHandicap from the most recent finished session they sang in.
func (a *API) GetLastHandicaps(c *gin.Context) {
	sessions, err := a.store.List(c.Request.Context())
	if err != nil {
		a.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, ranking.LastHandicaps(sessions))
}

func (a *API) GetRoster(c *gin.Context) {
	names, err := a.store.Roster(c.Request.Context())
	if err != nil {
		a.fail(c, err)
		return
	}
	if names == nil {
		names = []string{}
	}

	c.JSON(http.StatusOK, names)
}

func (a *API) AppendRosterName(c *gin.Context) {
	var req struct {
		Name string `json:"name" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		a.fail(c, errors.New(errors.CodeInvalidArgument, errors.WithCause(err)))
		return
	}

	names, err := a.store.AppendRosterName(c.Request.Context(), req.Name)
	if err != nil {
		a.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, names)
}

// validateSession rejects malformed scores at the boundary; the ranking
// engine assumes clean input and does not re-validate.
func validateSession(ss domain.Session) error {
	for _, p := range ss.Participants {
		for i, r := range p.Rounds {
			if r.Score == nil {
				continue
			}
			if r.Score.IsNegative() || r.Score.GreaterThan(maxRoundScore) {
				return errors.New(errors.CodeInvalidArgument,
					errors.WithMessagef("round %d score for %q out of range [0,100]: %s", i+1, p.Name, r.Score))
			}
		}
	}

	return nil
}
