package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"formassist-backend/internal/auth"
	"formassist-backend/pkg/httputil"
)

// sessionFrom returns the session injected by the JWT middleware, answering
// 401 when it is missing.
func sessionFrom(w http.ResponseWriter, r *http.Request) (auth.Session, bool) {
	sess, ok := auth.SessionFromContext(r.Context())
	if !ok {
		httputil.RespondError(w, http.StatusUnauthorized, "Unauthorized")
	}
	return sess, ok
}

// timestampParam parses the {ts} path parameter.
func timestampParam(w http.ResponseWriter, r *http.Request) (int64, bool) {
	ts, err := strconv.ParseInt(chi.URLParam(r, "ts"), 10, 64)
	if err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid message timestamp")
		return 0, false
	}
	return ts, true
}

// captureClipboard keeps copied text so it can be returned to the extension,
// which owns the real clipboard.
type captureClipboard struct {
	text string
}

func (c *captureClipboard) WriteText(_ context.Context, text string) error {
	c.text = text
	return nil
}
