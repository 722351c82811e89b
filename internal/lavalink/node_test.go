package lavalink

import (
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testPassword = "youshallnotpass"

type recordedRequest struct {
	Method string
	Path   string
	Body   string
}

type fakeLavalink struct {
	srv      *httptest.Server
	upgrader websocket.Upgrader
	conns    chan *websocket.Conn

	loadStatus int
	loadBody   string
	loadCalls  atomic.Int32

	mu       sync.Mutex
	requests []recordedRequest
}

func newFakeLavalink(t *testing.T) *fakeLavalink {
	f := &fakeLavalink{conns: make(chan *websocket.Conn, 4), loadStatus: http.StatusOK}

	mux := http.NewServeMux()
	mux.HandleFunc("/v4/websocket", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != testPassword {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		if r.Header.Get("User-Id") == "" || r.Header.Get("Client-Name") == "" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		conn, err := f.upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		f.conns <- conn
	})
	mux.HandleFunc("/v4/loadtracks", func(w http.ResponseWriter, r *http.Request) {
		f.loadCalls.Add(1)
		f.record(r)
		w.WriteHeader(f.loadStatus)
		_, _ = io.WriteString(w, f.loadBody)
	})
	mux.HandleFunc("/v4/sessions/", func(w http.ResponseWriter, r *http.Request) {
		f.record(r)
		w.WriteHeader(http.StatusNoContent)
	})

	f.srv = httptest.NewServer(mux)
	t.Cleanup(f.srv.Close)
	return f
}

func (f *fakeLavalink) record(r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, recordedRequest{Method: r.Method, Path: r.URL.RequestURI(), Body: string(body)})
}

func (f *fakeLavalink) lastRequest() recordedRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.requests) == 0 {
		return recordedRequest{}
	}
	return f.requests[len(f.requests)-1]
}

func (f *fakeLavalink) config(t *testing.T, password string) NodeConfig {
	u, err := url.Parse(f.srv.URL)
	require.NoError(t, err)
	host, portStr, err := net.SplitHostPort(u.Host)
	require.NoError(t, err)
	port, err := strconv.Atoi(portStr)
	require.NoError(t, err)
	return NodeConfig{ID: "main-node", Host: host, Port: port, Password: password, UserID: "42"}
}

func (f *fakeLavalink) accept(t *testing.T) *websocket.Conn {
	select {
	case c := <-f.conns:
		return c
	case <-time.After(2 * time.Second):
		t.Fatal("node never dialed the websocket")
		return nil
	}
}

type eventSink chan Event

func (s eventSink) handle(ev Event) { s <- ev }

func (s eventSink) next(t *testing.T) Event {
	select {
	case ev := <-s:
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("no event received")
		return nil
	}
}

func send(t *testing.T, conn *websocket.Conn, v any) {
	data, err := json.Marshal(v)
	require.NoError(t, err)
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, data))
}

func readyNode(t *testing.T, f *fakeLavalink) (*Node, eventSink, *websocket.Conn) {
	sink := make(eventSink, 16)
	n := NewNode(f.config(t, testPassword), sink.handle, nil)
	n.retry.InitialDelay = time.Millisecond
	n.retry.Jitter = false

	require.NoError(t, n.Connect(context.Background()))
	t.Cleanup(func() { _ = n.Close() })
	conn := f.accept(t)

	assert.IsType(t, NodeConnectedEvent{}, sink.next(t))
	send(t, conn, map[string]any{"op": "ready", "resumed": false, "sessionId": "abc123"})
	ready, ok := sink.next(t).(ReadyEvent)
	require.True(t, ok)
	assert.Equal(t, "abc123", ready.SessionID)
	return n, sink, conn
}

func TestNodeReceivesEventsAndClose(t *testing.T) {
	f := newFakeLavalink(t)
	n, sink, conn := readyNode(t, f)

	assert.Equal(t, StatusReady, n.Status())
	assert.Equal(t, "abc123", n.SessionID())

	send(t, conn, map[string]any{
		"op": "event", "type": "TrackStartEvent", "guildId": "1",
		"track": map[string]any{"encoded": "QAAA", "info": map[string]any{"title": "Lofi", "length": 180000}},
	})
	start, ok := sink.next(t).(TrackStartEvent)
	require.True(t, ok)
	assert.Equal(t, "1", start.GuildID)
	assert.Equal(t, "Lofi", start.Track.Info.Title)
	assert.Equal(t, 3*time.Minute, start.Track.Info.Duration())

	send(t, conn, map[string]any{"op": "event", "type": "TrackEndEvent", "guildId": "1", "reason": "finished"})
	end, ok := sink.next(t).(TrackEndEvent)
	require.True(t, ok)
	assert.True(t, end.Reason.MayStartNext())

	require.NoError(t, conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(4006, "session invalid"), time.Now().Add(time.Second)))

	closed, ok := sink.next(t).(NodeClosedEvent)
	require.True(t, ok)
	assert.Equal(t, "main-node", closed.Node())
	assert.Equal(t, 4006, closed.Code)
	assert.Equal(t, StatusDisconnected, n.Status())
	assert.Empty(t, n.SessionID())
}

func TestNodeConnectFailureIsNotAClose(t *testing.T) {
	f := newFakeLavalink(t)
	sink := make(eventSink, 4)
	n := NewNode(f.config(t, "wrong"), sink.handle, nil)

	err := n.Connect(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "main-node")

	_, isErr := sink.next(t).(NodeErrorEvent)
	assert.True(t, isErr)
	assert.Empty(t, sink)
	assert.Equal(t, StatusDisconnected, n.Status())
}

func TestCloseDoesNotEmitClosed(t *testing.T) {
	f := newFakeLavalink(t)
	n, sink, _ := readyNode(t, f)

	require.NoError(t, n.Close())
	time.Sleep(50 * time.Millisecond)
	assert.Empty(t, sink)
}

func TestLoadTracksSearch(t *testing.T) {
	f := newFakeLavalink(t)
	f.loadBody = `{"loadType":"search","data":[
		{"encoded":"a","info":{"title":"Lofi 1","author":"x","sourceName":"youtube"}},
		{"encoded":"b","info":{"title":"Lofi 2","author":"y","sourceName":"youtube"}}]}`
	n := NewNode(f.config(t, testPassword), nil, nil)

	res, err := n.LoadTracks(context.Background(), "ytsearch:lofi beats")
	require.NoError(t, err)
	assert.Equal(t, LoadTypeSearch, res.LoadType)
	require.Len(t, res.Tracks, 2)
	assert.Equal(t, "Lofi 2", res.Tracks[1].Info.Title)
	assert.Equal(t, "/v4/loadtracks?identifier=ytsearch%3Alofi+beats", f.lastRequest().Path)
}

func TestClientErrorIsNotRetried(t *testing.T) {
	f := newFakeLavalink(t)
	f.loadStatus = http.StatusBadRequest
	f.loadBody = `{"status":400,"error":"Bad Request","message":"identifier missing"}`
	n := NewNode(f.config(t, testPassword), nil, nil)

	_, err := n.LoadTracks(context.Background(), "")
	require.Error(t, err)

	var restErr *RESTError
	require.True(t, errors.As(err, &restErr))
	assert.Equal(t, 400, restErr.StatusCode())
	assert.Equal(t, "identifier missing", restErr.Message)
	assert.Equal(t, int32(1), f.loadCalls.Load())
}

func TestServerErrorIsRetried(t *testing.T) {
	f := newFakeLavalink(t)
	f.loadStatus = http.StatusServiceUnavailable
	n := NewNode(f.config(t, testPassword), nil, nil)
	n.retry.InitialDelay = time.Millisecond
	n.retry.Jitter = false

	_, err := n.LoadTracks(context.Background(), "ytsearch:x")
	require.Error(t, err)
	assert.Equal(t, int32(n.retry.MaxAttempts), f.loadCalls.Load())
}

func TestUpdatePlayerNeedsSession(t *testing.T) {
	f := newFakeLavalink(t)
	n := NewNode(f.config(t, testPassword), nil, nil)

	err := n.UpdatePlayer(context.Background(), "1", PlayerUpdate{Paused: Ptr(true)})
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestUpdatePlayerSendsPatch(t *testing.T) {
	f := newFakeLavalink(t)
	n, _, _ := readyNode(t, f)

	err := n.UpdatePlayer(context.Background(), "99", PlayerUpdate{Track: PlayTrack("QAAA"), Volume: Ptr(50)})
	require.NoError(t, err)

	req := f.lastRequest()
	assert.Equal(t, http.MethodPatch, req.Method)
	assert.Equal(t, "/v4/sessions/abc123/players/99?noReplace=false", req.Path)
	assert.JSONEq(t, `{"track":{"encoded":"QAAA"},"volume":50}`, req.Body)

	require.NoError(t, n.UpdatePlayer(context.Background(), "99", PlayerUpdate{Track: StopTrack()}))
	assert.JSONEq(t, `{"track":{"encoded":null}}`, f.lastRequest().Body)

	require.NoError(t, n.DestroyPlayer(context.Background(), "99"))
	assert.Equal(t, http.MethodDelete, f.lastRequest().Method)
}

func TestRegistryRoutesToReadyNode(t *testing.T) {
	f := newFakeLavalink(t)
	reg := NewRegistry()

	idle := NewNode(NodeConfig{ID: "idle", Host: "127.0.0.1", Port: 1}, nil, nil)
	reg.Add(idle)
	_, err := reg.Best()
	assert.ErrorIs(t, err, ErrNoNodeAvailable)

	n, _, _ := readyNode(t, f)
	reg.Add(n)

	best, err := reg.Best()
	require.NoError(t, err)
	assert.Equal(t, "main-node", best.ID())

	got, ok := reg.Get("idle")
	assert.True(t, ok)
	assert.Same(t, idle, got)
	assert.Len(t, reg.Nodes(), 2)
}
