package apihttp

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"playcore/internal/domain"
)

func dialWS(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial ws: %v", err)
	}
	resp.Body.Close()
	return conn
}

func readWSMessage(t *testing.T, conn *websocket.Conn, timeout time.Duration) wsMessage {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(timeout))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read ws message: %v", err)
	}
	var msg wsMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		t.Fatalf("unmarshal ws message: %v (raw: %s)", err, data)
	}
	return msg
}

func TestWSBroadcastPlayerState(t *testing.T) {
	server := NewServer(&fakePlayer{state: domain.PlayerPlaying, format: domain.FormatTorrent, title: "Sintel"})
	defer server.Close()

	srv := httptest.NewServer(server)
	defer srv.Close()

	conn := dialWS(t, srv)
	defer conn.Close()

	// Give the hub time to register the client before broadcasting.
	deadline := time.Now().Add(2 * time.Second)
	for server.wsHub.clientCount() == 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}

	server.BroadcastState()

	msg := readWSMessage(t, conn, 3*time.Second)
	if msg.Type != "player_state" {
		t.Fatalf("type = %s", msg.Type)
	}
	payload, err := json.Marshal(msg.Data)
	if err != nil {
		t.Fatalf("remarshal: %v", err)
	}
	var snapshot playerStateResponse
	if err := json.Unmarshal(payload, &snapshot); err != nil {
		t.Fatalf("decode snapshot: %v", err)
	}
	if snapshot.State != domain.PlayerPlaying || snapshot.Title != "Sintel" {
		t.Fatalf("snapshot mismatch: %+v", snapshot)
	}
}

func TestWSBroadcastSwarmStats(t *testing.T) {
	server := NewServer(&fakePlayer{})
	defer server.Close()

	srv := httptest.NewServer(server)
	defer srv.Close()

	conn := dialWS(t, srv)
	defer conn.Close()

	deadline := time.Now().Add(2 * time.Second)
	for server.wsHub.clientCount() == 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}

	server.BroadcastSwarmStats(domain.SwarmStats{DownloadSpeed: 1024, NumPeers: 3, Progress: 0.5})

	msg := readWSMessage(t, conn, 3*time.Second)
	if msg.Type != "swarm_stats" {
		t.Fatalf("type = %s", msg.Type)
	}
	payload, err := json.Marshal(msg.Data)
	if err != nil {
		t.Fatalf("remarshal: %v", err)
	}
	var stats domain.SwarmStats
	if err := json.Unmarshal(payload, &stats); err != nil {
		t.Fatalf("decode stats: %v", err)
	}
	if stats.DownloadSpeed != 1024 || stats.NumPeers != 3 {
		t.Fatalf("stats mismatch: %+v", stats)
	}
}

func TestWSBroadcastWithoutClientsIsNoop(t *testing.T) {
	server := NewServer(&fakePlayer{})
	defer server.Close()

	// No clients connected: must not block or panic.
	server.BroadcastState()
	server.BroadcastSwarmStats(domain.SwarmStats{})
}

func TestWSHubCloseDisconnectsClients(t *testing.T) {
	server := NewServer(&fakePlayer{})

	srv := httptest.NewServer(server)
	defer srv.Close()

	conn := dialWS(t, srv)
	defer conn.Close()

	deadline := time.Now().Add(2 * time.Second)
	for server.wsHub.clientCount() == 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}

	server.Close()

	_ = conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	_, _, err := conn.ReadMessage()
	if err == nil {
		t.Fatal("expected close error after hub shutdown")
	}
}
