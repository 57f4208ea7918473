package server

import (
	"bytes"
	"net/http"
	"testing"
)

func TestDebugContextRoute(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()
	client := srv.Client()

	res, data := doJSON(t, client, http.MethodPost, srv.URL+"/v0/kris", map[string]any{
		"kri_id":         7,
		"reporting_date": 20260131,
		"name":           "ops losses",
		"owner":          "alice",
		"data_provider":  "bob",
	}, asAdmin())
	t.Logf("create: %d %s", res.StatusCode, string(data))

	res, data = doJSON(t, client, http.MethodGet, srv.URL+"/v0/kris/7/20260131", nil, asAdmin())
	t.Logf("detail as admin: %d %s", res.StatusCode, string(data))

	res, data = doJSON(t, client, http.MethodGet, srv.URL+"/v0/kris/7/20260131/context", nil, asAdmin())
	t.Logf("context as admin: %d %s", res.StatusCode, string(data))

	res, data = doJSON(t, client, http.MethodGet, srv.URL+"/v0/kris/7/20260131/context?atomic_id=0", nil, asAdmin())
	t.Logf("context with query: %d %s", res.StatusCode, string(data))

	res, data = doJSON(t, client, http.MethodGet, srv.URL+"/v0/openapi.json", nil, asAdmin())
	if res.StatusCode == http.StatusOK && len(data) > 0 {
		t.Logf("openapi has /context: %v", bytes.Contains(data, []byte("/context")))
		for _, line := range bytes.Split(data, []byte(",")) {
			if bytes.Contains(line, []byte("/kris/")) {
				t.Logf("path frag: %s", line[:min(len(line), 120)])
			}
		}
	} else {
		t.Logf("openapi: %d %s", res.StatusCode, string(data))
	}
}
