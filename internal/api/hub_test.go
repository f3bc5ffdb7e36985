package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func dialHub(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(url, "http"), nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readEvent(t *testing.T, conn *websocket.Conn) progressEvent {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var ev progressEvent
	if err := json.Unmarshal(msg, &ev); err != nil {
		t.Fatalf("bad event json: %v", err)
	}
	return ev
}

func TestHubBroadcastsProgress(t *testing.T) {
	hub := NewHub(nil)
	srv := httptest.NewServer(http.HandlerFunc(hub.ServeWS))
	defer srv.Close()

	conn := dialHub(t, srv.URL)

	// Give the hub a moment to register the client.
	deadline := time.Now().Add(time.Second)
	for {
		hub.mu.RLock()
		n := len(hub.clients)
		hub.mu.RUnlock()
		if n == 1 || time.Now().After(deadline) {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}

	hub.Report(5, 10)
	ev := readEvent(t, conn)
	if ev.Processed != 5 || ev.Total != 10 || ev.Percent != 50 {
		t.Errorf("unexpected event: %+v", ev)
	}
}

func TestHubReplaysLastEventToNewSubscribers(t *testing.T) {
	hub := NewHub(nil)
	srv := httptest.NewServer(http.HandlerFunc(hub.ServeWS))
	defer srv.Close()

	hub.Report(3, 4)

	conn := dialHub(t, srv.URL)
	ev := readEvent(t, conn)
	if ev.Processed != 3 || ev.Total != 4 {
		t.Errorf("expected replay of last event, got %+v", ev)
	}
}
