package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/Comcast/treetags/config"
	"github.com/Comcast/treetags/util/testutil"
	"github.com/Comcast/treetags/view"

	"github.com/gorilla/websocket"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type published struct {
	sync.Mutex
	ids []string
}

func (p *published) Publish(ctx context.Context, res *view.Result) error {
	p.Lock()
	p.ids = append(p.ids, res.ViewId)
	p.Unlock()
	return nil
}

func testService(t *testing.T) (*Service, *httptest.Server, *http.Client) {
	t.Helper()
	cfg := config.Default()
	cfg.StorageFile = filepath.Join(t.TempDir(), "views.db")

	s, cleanup, err := makeService(context.Background(), cfg, "../../templates/todo.yaml", testutil.Logger(t))
	if err != nil {
		t.Fatal(err)
	}
	ts := httptest.NewServer(s.Handler())
	client := &http.Client{
		Transport: &http.Transport{DisableKeepAlives: true},
	}
	t.Cleanup(func() {
		ts.Close()
		cleanup()
	})
	return s, ts, client
}

func todos(titles ...string) map[string]interface{} {
	xs := make([]interface{}, len(titles))
	for i, title := range titles {
		xs[i] = map[string]interface{}{"title": title, "done": false}
	}
	return map[string]interface{}{
		"filter": "all",
		"todos":  xs,
	}
}

func post(t *testing.T, client *http.Client, url string, req interface{}) *http.Response {
	t.Helper()
	js, err := json.Marshal(req)
	if err != nil {
		t.Fatal(err)
	}
	resp, err := client.Post(url, "application/json", bytes.NewReader(js))
	if err != nil {
		t.Fatal(err)
	}
	return resp
}

type result struct {
	View    string   `json:"view"`
	Added   []string `json:"added"`
	Removed []string `json:"removed"`
	Error   string   `json:"error"`
}

func TestHTTPRender(t *testing.T) {
	s, ts, client := testService(t)
	p := &published{}
	s.Publisher = p

	decode := func(resp *http.Response) result {
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Fatal(resp.Status)
		}
		var r result
		if err := json.NewDecoder(resp.Body).Decode(&r); err != nil {
			t.Fatal(err)
		}
		return r
	}

	first := decode(post(t, client, ts.URL+"/render", map[string]interface{}{
		"bindings": todos("wash", "dry"),
	}))
	if first.View == "" {
		t.Fatal("no view id")
	}

	second := decode(post(t, client, ts.URL+"/render", map[string]interface{}{
		"view":     first.View,
		"bindings": todos("wash"),
	}))
	if len(second.Removed) != 2 || second.Removed[0] != "0_2_0_1_0" {
		t.Fatal(second)
	}

	if len(p.ids) != 2 || p.ids[1] != first.View {
		t.Fatal(p.ids)
	}

	resp := post(t, client, ts.URL+"/render.html", map[string]interface{}{
		"bindings": todos("wash"),
	})
	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(body), `<li data-id="0_2_0_0_0" class="active">1. wash</li>`) {
		t.Fatal(string(body))
	}
	if resp.Header.Get("X-View-Id") == "" {
		t.Fatal("no view id")
	}

	req, err := http.NewRequest(http.MethodDelete, ts.URL+"/views/"+first.View, nil)
	if err != nil {
		t.Fatal(err)
	}
	if resp, err = client.Do(req); err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Fatal(resp.Status)
	}
}

func TestHTTPBad(t *testing.T) {
	_, ts, client := testService(t)

	resp, err := client.Get(ts.URL + "/render")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Fatal(resp.Status)
	}

	resp, err = client.Post(ts.URL+"/render", "application/json", strings.NewReader("{"))
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatal(resp.Status)
	}

	// No todos binding.
	resp = post(t, client, ts.URL+"/render", map[string]interface{}{})
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatal(resp.Status)
	}
}

func TestWebSocket(t *testing.T) {
	s, ts, _ := testService(t)

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	c, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()

	roundTrip := func(req interface{}) result {
		if err := c.WriteJSON(req); err != nil {
			t.Fatal(err)
		}
		var r result
		if err := c.ReadJSON(&r); err != nil {
			t.Fatal(err)
		}
		return r
	}

	first := roundTrip(map[string]interface{}{"bindings": todos("wash")})
	if first.View == "" || first.Error != "" {
		t.Fatal(first)
	}
	if s.Conns() != 1 {
		t.Fatal(s.Conns())
	}

	// Same connection, same view.
	second := roundTrip(map[string]interface{}{"bindings": todos("wash", "dry")})
	if second.View != first.View {
		t.Fatal(second.View)
	}
	if len(second.Added) != 2 || second.Added[0] != "0_2_0_1_0" {
		t.Fatal(second)
	}

	bad := roundTrip(map[string]interface{}{})
	if bad.Error == "" {
		t.Fatal("didn't protest")
	}

	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	if err = c.WriteMessage(websocket.CloseMessage, msg); err != nil {
		t.Fatal(err)
	}
}

func TestParseTopic(t *testing.T) {
	tests := []struct {
		in    string
		topic string
		qos   byte
	}{
		{"views", "views", 0},
		{"views:1", "views", 1},
		{"a/b:2", "a/b", 2},
		{"views:9", "views:9", 0},
		{"views:x", "views:x", 0},
	}
	for _, test := range tests {
		topic, qos := parseTopic(test.in)
		if topic != test.topic || qos != test.qos {
			t.Fatalf("%s: %s %d", test.in, topic, qos)
		}
	}
}
