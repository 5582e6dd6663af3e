package handlers

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

type fakePinger struct {
	err error
}

func (f fakePinger) Ping(context.Context) error {
	return f.err
}

func TestHealth(t *testing.T) {
	r := gin.New()
	r.GET("/healthz", Health())

	w := get(r, "/healthz")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestReady(t *testing.T) {
	cases := []struct {
		name   string
		store  Pinger
		status int
		body   string
	}{
		{"healthy", fakePinger{}, http.StatusOK, `{"status":"ok","db":"ok"}`},
		{"unhealthy", fakePinger{err: errors.New("down")}, http.StatusServiceUnavailable, `{"status":"degraded","db":"unhealthy"}`},
		{"disabled", nil, http.StatusOK, `{"status":"ok","db":"disabled"}`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := gin.New()
			r.GET("/readyz", Ready(tc.store))

			w := get(r, "/readyz")
			assert.Equal(t, tc.status, w.Code)
			assert.JSONEq(t, tc.body, w.Body.String())
		})
	}
}
