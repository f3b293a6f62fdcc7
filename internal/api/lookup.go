package api

import (
	stderrors "errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/shiomura/utakai/internal/errors"
	"github.com/shiomura/utakai/internal/lookup"
)

const maxImageBytes = 10 << 20

// SearchSongs proxies the song catalogue for the title autocomplete. It only
// fills the title field and can never fail the score path: lookup errors
// surface as an empty candidate list.
func (a *API) SearchSongs(c *gin.Context) {
	songs := a.songs.Search(c.Request.Context(), c.Query("term"))
	if songs == nil {
		songs = []lookup.Song{}
	}

	c.JSON(http.StatusOK, songs)
}

// RecognizeScore runs the best-effort score OCR over an uploaded image. The
// guess is always user-overridable before save.
func (a *API) RecognizeScore(c *gin.Context) {
	image, _, err := readImage(c)
	if err != nil {
		a.fail(c, err)
		return
	}

	guess, err := a.recognizer.Recognize(c.Request.Context(), image)
	if stderrors.Is(err, lookup.ErrRecognizerUnavailable) {
		a.fail(c, errors.New(errors.CodeUnavailable,
			errors.WithMessagef("score recognition is not configured")))
		return
	}
	if err != nil {
		// Best effort only: a failed read is an empty guess, not an error
		// the client has to handle differently.
		c.JSON(http.StatusOK, lookup.Guess{})
		return
	}

	c.JSON(http.StatusOK, guess)
}

// UploadEvidence stores a score-proof photo and returns the reference to put
// in the round's evidenceImage field. The client saves scores regardless of
// whether this call succeeds.
func (a *API) UploadEvidence(c *gin.Context) {
	participantID := c.PostForm("participantId")
	round, err := strconv.Atoi(c.PostForm("round"))
	if err != nil {
		a.fail(c, errors.New(errors.CodeInvalidArgument,
			errors.WithMessagef("round must be a number")))
		return
	}

	image, contentType, err := readImage(c)
	if err != nil {
		a.fail(c, err)
		return
	}

	ref, err := a.evidence.Put(c.Request.Context(), participantID, round, contentType, image)
	if err != nil {
		a.fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"reference": ref})
}

func (a *API) GetEvidence(c *gin.Context) {
	content, contentType, err := a.evidence.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		a.fail(c, err)
		return
	}

	c.Data(http.StatusOK, contentType, content)
}

func readImage(c *gin.Context) ([]byte, string, error) {
	file, header, err := c.Request.FormFile("image")
	if err != nil {
		return nil, "", errors.New(errors.CodeInvalidArgument,
			errors.WithMessagef("missing image file"), errors.WithCause(err))
	}
	defer file.Close()

	// Read one byte past the limit so an oversized upload is rejected
	// instead of silently truncated.
	image, err := io.ReadAll(io.LimitReader(file, maxImageBytes+1))
	if err != nil {
		return nil, "", errors.Internal(err)
	}
	if len(image) > maxImageBytes {
		return nil, "", errors.New(errors.CodeInvalidArgument,
			errors.WithMessagef("image larger than %d bytes", maxImageBytes))
	}

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "image/jpeg"
	}

	return image, contentType, nil
}
