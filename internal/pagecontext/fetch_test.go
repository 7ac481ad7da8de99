package pagecontext

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-AI-Assist", "on")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte("<title>Missing</title>"))
	}))
	defer srv.Close()

	page, err := Fetch(context.Background(), srv.Client(), srv.URL+"/signup")
	require.NoError(t, err)

	assert.Equal(t, http.StatusNotFound, page.Status)
	assert.Equal(t, "on", page.Header.Get("x-ai-assist"))
	assert.Equal(t, "<title>Missing</title>", string(page.Body))
	assert.Equal(t, srv.URL+"/signup", page.URL)
}

func TestFetch_BadURL(t *testing.T) {
	_, err := Fetch(context.Background(), nil, "://nope")
	assert.Error(t, err)
}
