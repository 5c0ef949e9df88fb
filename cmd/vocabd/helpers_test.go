package main

import (
	"net/http/httptest"
	"testing"
)

func httptestServer(t *testing.T, app *application) string {
	t.Helper()
	srv := httptest.NewServer(app.router())
	t.Cleanup(srv.Close)
	return srv.URL
}
