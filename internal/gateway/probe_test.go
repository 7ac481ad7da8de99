package gateway

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"formassist-backend/internal/logging"
	"formassist-backend/internal/models"
)

func probeServer(t *testing.T, status int, body string) string {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv.URL
}

func TestProbe_Recognised(t *testing.T) {
	url := probeServer(t, http.StatusOK, completion(`{"testField": "Connection successful"}`))
	g := New(nil, nil, logging.Nop())

	res, err := g.Probe(context.Background(), models.Settings{AIEndpoint: url})

	require.NoError(t, err)
	assert.True(t, res.Envelope)
	assert.True(t, res.Recognised)
	assert.Equal(t, models.FieldMapping{"testField": "Connection successful"}, res.Data)
}

func TestProbe_OtherObject(t *testing.T) {
	url := probeServer(t, http.StatusOK, `{"result":"ok"}`)
	res, err := New(nil, nil, logging.Nop()).Probe(context.Background(), models.Settings{AIEndpoint: url})

	require.NoError(t, err)
	assert.False(t, res.Envelope)
	assert.True(t, res.Object)
}

func TestProbe_Errors(t *testing.T) {
	g := New(nil, nil, logging.Nop())

	_, err := g.Probe(context.Background(), models.Settings{AIEndpoint: probeServer(t, http.StatusUnauthorized, "bad key")})
	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusUnauthorized, se.Code)
	assert.Equal(t, "bad key", se.Body)

	_, err = g.Probe(context.Background(), models.Settings{AIEndpoint: probeServer(t, http.StatusOK, "<html>")})
	assert.ErrorIs(t, err, ErrInvalidJSON)
}
