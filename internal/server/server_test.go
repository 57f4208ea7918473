package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"testing"

	"riskline/internal/config"
	"riskline/internal/db"
	"riskline/internal/engine"
	"riskline/internal/migrate"
)

type testServer struct {
	URL    string
	Engine engine.Engine
	client *http.Client
	close  func()
}

func (s *testServer) Client() *http.Client { return s.client }
func (s *testServer) Close()               { s.close() }

func newTestServer(t *testing.T) (*testServer, func()) {
	t.Helper()
	workspace := t.TempDir()
	if _, err := db.EnsureWorkspace(workspace); err != nil {
		t.Fatalf("ensure workspace: %v", err)
	}
	conn, err := db.Open(db.Config{Workspace: workspace})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := migrate.Migrate(conn); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	e := engine.New(conn, config.Default("riskline"))
	handler, err := New(Config{
		Engine:   e,
		BasePath: "/v0",
		Auth: AuthConfig{
			JWTSecret:             "test-secret",
			AllowLegacyUserHeader: true,
			Admins:                []string{"admin"},
		},
	})
	if err != nil {
		t.Fatalf("build handler: %v", err)
	}
	ln, err := net.Listen("tcp4", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	srv := &http.Server{Handler: handler}
	go srv.Serve(ln)
	testSrv := &testServer{
		URL:    "http://" + ln.Addr().String(),
		Engine: e,
		client: &http.Client{},
		close: func() {
			srv.Shutdown(context.Background())
			ln.Close()
			conn.Close()
		},
	}
	return testSrv, func() { testSrv.Close() }
}

func doJSON(t *testing.T, client *http.Client, method, url string, body any, headers map[string]string) (*http.Response, []byte) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}
	req, err := http.NewRequest(method, url, reader)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	res, err := client.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	defer res.Body.Close()
	data, err := io.ReadAll(res.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return res, data
}

func asAdmin() map[string]string { return map[string]string{"X-User-Id": "admin"} }
func asUser(u string) map[string]string {
	return map[string]string{"X-User-Id": u}
}

func TestWorkflowOverHTTP(t *testing.T) {
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
	if res.StatusCode != http.StatusOK {
		t.Fatalf("create kri: %d %s", res.StatusCode, string(data))
	}

	res, data = doJSON(t, client, http.MethodPut, srv.URL+"/v0/kris/7/20260131/permissions", map[string]any{
		"user_uuid": "provider",
		"actions":   "edit,save,submit",
	}, asAdmin())
	if res.StatusCode != http.StatusOK {
		t.Fatalf("grant: %d %s", res.StatusCode, string(data))
	}

	res, data = doJSON(t, client, http.MethodGet, srv.URL+"/v0/kris/7/20260131/context", nil, asUser("provider"))
	if res.StatusCode != http.StatusOK {
		t.Fatalf("context: %d %s", res.StatusCode, string(data))
	}
	var op struct {
		CurrentStatus int `json:"current_status"`
		Available     []struct {
			Name string `json:"name"`
		} `json:"available_actions"`
	}
	if err := json.Unmarshal(data, &op); err != nil {
		t.Fatalf("unmarshal context: %v", err)
	}
	if op.CurrentStatus != 10 {
		t.Fatalf("status = %d", op.CurrentStatus)
	}
	names := map[string]bool{}
	for _, a := range op.Available {
		names[a.Name] = true
	}
	if !names["save"] || !names["submit"] || names["approve"] {
		t.Fatalf("available = %v", names)
	}

	res, data = doJSON(t, client, http.MethodPost, srv.URL+"/v0/kris/7/20260131/actions/save", map[string]any{
		"value": 42.0,
	}, asUser("provider"))
	if res.StatusCode != http.StatusOK {
		t.Fatalf("save: %d %s", res.StatusCode, string(data))
	}
	var result struct {
		Success bool   `json:"success"`
		Code    string `json:"code"`
	}
	if err := json.Unmarshal(data, &result); err != nil || !result.Success {
		t.Fatalf("save result: %s err=%v", string(data), err)
	}

	res, data = doJSON(t, client, http.MethodPost, srv.URL+"/v0/kris/7/20260131/actions/submit", nil, asUser("provider"))
	if res.StatusCode != http.StatusOK {
		t.Fatalf("submit: %d %s", res.StatusCode, string(data))
	}
	_ = json.Unmarshal(data, &result)
	if !result.Success {
		t.Fatalf("submit result: %s", string(data))
	}

	// the provider has no grant that works at status 40
	res, data = doJSON(t, client, http.MethodPost, srv.URL+"/v0/kris/7/20260131/actions/approve", nil, asUser("provider"))
	if res.StatusCode != http.StatusOK {
		t.Fatalf("approve transport: %d %s", res.StatusCode, string(data))
	}
	_ = json.Unmarshal(data, &result)
	if result.Success || result.Code != "ACTION_NOT_AVAILABLE" {
		t.Fatalf("approve result: %s", string(data))
	}

	res, data = doJSON(t, client, http.MethodGet, srv.URL+"/v0/kris/7/20260131/audit", nil, asUser("provider"))
	if res.StatusCode != http.StatusOK {
		t.Fatalf("audit: %d %s", res.StatusCode, string(data))
	}
	var audit struct {
		Entries []struct {
			Action string `json:"action"`
		} `json:"entries"`
	}
	if err := json.Unmarshal(data, &audit); err != nil || len(audit.Entries) == 0 {
		t.Fatalf("audit entries: %s err=%v", string(data), err)
	}
	if audit.Entries[0].Action != "submit" {
		t.Fatalf("latest audit action = %s", audit.Entries[0].Action)
	}
}

func TestViewScopingOnList(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()
	client := srv.Client()

	for _, id := range []int{1, 2} {
		res, data := doJSON(t, client, http.MethodPost, srv.URL+"/v0/kris", map[string]any{
			"kri_id":         id,
			"reporting_date": 20260131,
			"owner":          "a",
			"data_provider":  "b",
		}, asAdmin())
		if res.StatusCode != http.StatusOK {
			t.Fatalf("create kri %d: %d %s", id, res.StatusCode, string(data))
		}
	}
	res, data := doJSON(t, client, http.MethodPut, srv.URL+"/v0/kris/1/20260131/permissions", map[string]any{
		"user_uuid": "u1",
		"actions":   "edit",
	}, asAdmin())
	if res.StatusCode != http.StatusOK {
		t.Fatalf("grant: %d %s", res.StatusCode, string(data))
	}

	res, data = doJSON(t, client, http.MethodGet, srv.URL+"/v0/kris", nil, asUser("u1"))
	if res.StatusCode != http.StatusOK {
		t.Fatalf("list: %d %s", res.StatusCode, string(data))
	}
	var list struct {
		Items []struct {
			KRIID int64 `json:"kri_id"`
		} `json:"items"`
	}
	if err := json.Unmarshal(data, &list); err != nil {
		t.Fatalf("unmarshal list: %v", err)
	}
	if len(list.Items) != 1 || list.Items[0].KRIID != 1 {
		t.Fatalf("visible items = %+v", list.Items)
	}

	// no view grant at all on kri 2
	res, data = doJSON(t, client, http.MethodGet, srv.URL+"/v0/kris/2/20260131", nil, asUser("u1"))
	if res.StatusCode != http.StatusForbidden {
		t.Fatalf("detail without view: %d %s", res.StatusCode, string(data))
	}
}

func TestBulkEndpoint(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()
	client := srv.Client()

	for _, id := range []int{11, 12} {
		res, data := doJSON(t, client, http.MethodPost, srv.URL+"/v0/kris", map[string]any{
			"kri_id":         id,
			"reporting_date": 20260131,
			"owner":          "a",
			"data_provider":  "b",
			"status":         30,
		}, asAdmin())
		if res.StatusCode != http.StatusOK {
			t.Fatalf("create kri %d: %d %s", id, res.StatusCode, string(data))
		}
	}
	res, data := doJSON(t, client, http.MethodPut, srv.URL+"/v0/kris/11/20260131/permissions", map[string]any{
		"user_uuid": "u1",
		"actions":   "submit",
	}, asAdmin())
	if res.StatusCode != http.StatusOK {
		t.Fatalf("grant: %d %s", res.StatusCode, string(data))
	}

	res, data = doJSON(t, client, http.MethodPost, srv.URL+"/v0/actions/bulk", map[string]any{
		"action": "submit",
		"targets": []map[string]any{
			{"kri_id": 11, "reporting_date": 20260131},
			{"kri_id": 12, "reporting_date": 20260131},
		},
	}, asUser("u1"))
	if res.StatusCode != http.StatusOK {
		t.Fatalf("bulk: %d %s", res.StatusCode, string(data))
	}
	var bulk struct {
		Results []struct {
			Result struct {
				Success bool   `json:"success"`
				Code    string `json:"code"`
			} `json:"result"`
		} `json:"results"`
	}
	if err := json.Unmarshal(data, &bulk); err != nil || len(bulk.Results) != 2 {
		t.Fatalf("bulk results: %s err=%v", string(data), err)
	}
	if !bulk.Results[0].Result.Success {
		t.Fatalf("first bulk result: %s", string(data))
	}
	if bulk.Results[1].Result.Success || bulk.Results[1].Result.Code != "ACTION_NOT_AVAILABLE" {
		t.Fatalf("second bulk result: %s", string(data))
	}
}

func TestAuthRequired(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()
	client := srv.Client()

	res, _ := doJSON(t, client, http.MethodGet, srv.URL+"/v0/kris", nil, nil)
	if res.StatusCode != http.StatusUnauthorized {
		t.Fatalf("unauthenticated list: %d", res.StatusCode)
	}
	res, _ = doJSON(t, client, http.MethodGet, srv.URL+"/v0/health", nil, nil)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("health must be open: %d", res.StatusCode)
	}

	// mint a token and use it
	res, data := doJSON(t, client, http.MethodPost, srv.URL+"/v0/auth/dev/login", map[string]any{
		"user_uuid": "u1",
	}, nil)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("dev login: %d %s", res.StatusCode, string(data))
	}
	var login struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(data, &login); err != nil || login.Token == "" {
		t.Fatalf("token: %s err=%v", string(data), err)
	}
	res, data = doJSON(t, client, http.MethodGet, srv.URL+"/v0/me", nil, map[string]string{
		"Authorization": "Bearer " + login.Token,
	})
	if res.StatusCode != http.StatusOK {
		t.Fatalf("me: %d %s", res.StatusCode, string(data))
	}
	var me WhoAmIResponse
	if err := json.Unmarshal(data, &me); err != nil || me.UserUUID != "u1" || me.Source != "jwt" {
		t.Fatalf("me body: %s err=%v", string(data), err)
	}

	// admin gating
	res, data = doJSON(t, client, http.MethodPost, srv.URL+"/v0/kris", map[string]any{
		"kri_id":         1,
		"reporting_date": 20260131,
	}, asUser("u1"))
	if res.StatusCode != http.StatusForbidden {
		t.Fatalf("non-admin create: %d %s", res.StatusCode, string(data))
	}
}
