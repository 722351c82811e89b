package lavalink

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/keshon/rockola/pkg/retrylimit"
)

const (
	DefaultClientName = "rockola"
	handshakeTimeout  = 10 * time.Second
	requestTimeout    = 15 * time.Second
)

// ErrNoSession is returned by player calls made before the node sent ready.
var ErrNoSession = errors.New("lavalink node has no session yet")

// Status is the liveness of a node.
type Status int32

const (
	StatusDisconnected Status = iota
	StatusConnecting
	StatusConnected
	StatusReady
)

func (s Status) String() string {
	switch s {
	case StatusConnecting:
		return "connecting"
	case StatusConnected:
		return "connected"
	case StatusReady:
		return "ready"
	default:
		return "disconnected"
	}
}

// NodeConfig describes one Lavalink endpoint.
type NodeConfig struct {
	ID         string
	Host       string
	Port       int
	Password   string
	Secure     bool
	UserID     string
	ClientName string
	// RPS is the starting REST rate; it adapts between 1 and 4x this value.
	RPS float64
}

func (c NodeConfig) address() string {
	return c.Host + ":" + strconv.Itoa(c.Port)
}

func (c NodeConfig) websocketURL() string {
	scheme := "ws"
	if c.Secure {
		scheme = "wss"
	}
	return (&url.URL{Scheme: scheme, Host: c.address(), Path: "/v4/websocket"}).String()
}

func (c NodeConfig) restURL() string {
	scheme := "http"
	if c.Secure {
		scheme = "https"
	}
	return scheme + "://" + c.address()
}

// Handler receives node events. It runs on the node's read goroutine.
type Handler func(Event)

// Node is one Lavalink connection: a websocket for events plus REST calls
// scoped to the websocket's session.
type Node struct {
	cfg     NodeConfig
	log     *zap.Logger
	handler Handler
	dialer  *websocket.Dialer
	http    *http.Client
	limiter *retrylimit.AdaptiveLimiter
	retry   retrylimit.Config

	mu        sync.RWMutex
	conn      *websocket.Conn
	sessionID string
	status    Status
}

// NewNode creates a disconnected node. handler may be nil.
func NewNode(cfg NodeConfig, handler Handler, log *zap.Logger) *Node {
	if log == nil {
		log = zap.NewNop()
	}
	if handler == nil {
		handler = func(Event) {}
	}
	if cfg.ClientName == "" {
		cfg.ClientName = DefaultClientName
	}
	if cfg.RPS <= 0 {
		cfg.RPS = 5
	}

	retry := retrylimit.DefaultConfig()
	retry.Logger = log

	return &Node{
		cfg:     cfg,
		log:     log.With(zap.String("node", cfg.ID)),
		handler: handler,
		dialer:  &websocket.Dialer{HandshakeTimeout: handshakeTimeout, Proxy: http.ProxyFromEnvironment},
		http:    &http.Client{Timeout: requestTimeout},
		limiter: retrylimit.NewAdaptiveLimiter(rate.Limit(cfg.RPS), 1, rate.Limit(cfg.RPS*4), 1, 0.5),
		retry:   retry,
	}
}

func (n *Node) ID() string { return n.cfg.ID }

func (n *Node) Status() Status {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.status
}

func (n *Node) SessionID() string {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.sessionID
}

// Connect dials the websocket. A dial failure is returned to the caller and
// reported as a NodeErrorEvent, never as a NodeClosedEvent. Connecting an
// already connected node is a no-op.
func (n *Node) Connect(ctx context.Context) error {
	n.mu.Lock()
	if n.conn != nil || n.status == StatusConnecting {
		n.mu.Unlock()
		return nil
	}
	n.status = StatusConnecting
	n.mu.Unlock()

	header := http.Header{}
	header.Set("Authorization", n.cfg.Password)
	header.Set("User-Id", n.cfg.UserID)
	header.Set("Client-Name", n.cfg.ClientName)

	conn, resp, err := n.dialer.DialContext(ctx, n.cfg.websocketURL(), header)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	if err != nil {
		n.setStatus(StatusDisconnected)
		if resp != nil {
			err = errors.Wrapf(err, "handshake status %d", resp.StatusCode)
		}
		err = errors.Wrapf(err, "dial lavalink node %s", n.cfg.ID)
		n.handler(NodeErrorEvent{NodeRef: n.ref(), Err: err})
		return err
	}

	n.mu.Lock()
	n.conn = conn
	n.status = StatusConnected
	n.mu.Unlock()

	n.log.Info("lavalink node connected", zap.String("addr", n.cfg.address()))
	n.handler(NodeConnectedEvent{NodeRef: n.ref()})

	go n.readLoop(conn)
	return nil
}

// Close shuts the websocket down without emitting a NodeClosedEvent.
func (n *Node) Close() error {
	n.mu.Lock()
	conn := n.conn
	n.conn = nil
	n.sessionID = ""
	n.status = StatusDisconnected
	n.mu.Unlock()

	if conn == nil {
		return nil
	}
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "shutting down")
	_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
	return conn.Close()
}

func (n *Node) readLoop(conn *websocket.Conn) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			n.closed(conn, err)
			return
		}

		var f frame
		if err := json.Unmarshal(data, &f); err != nil {
			n.log.Warn("undecodable lavalink frame", zap.Error(err))
			continue
		}

		ev, ok := decodeFrame(n.cfg.ID, f)
		if !ok {
			n.log.Debug("ignored lavalink frame", zap.String("op", f.Op), zap.String("type", f.Type))
			continue
		}
		if ready, isReady := ev.(ReadyEvent); isReady {
			n.mu.Lock()
			n.sessionID = ready.SessionID
			n.status = StatusReady
			n.mu.Unlock()
			n.log.Info("lavalink node ready", zap.String("session", ready.SessionID), zap.Bool("resumed", ready.Resumed))
		}
		n.handler(ev)
	}
}

func (n *Node) closed(conn *websocket.Conn, err error) {
	n.mu.Lock()
	current := n.conn == conn
	if current {
		n.conn = nil
		n.sessionID = ""
		n.status = StatusDisconnected
	}
	n.mu.Unlock()
	_ = conn.Close()

	if !current {
		return
	}

	code := websocket.CloseAbnormalClosure
	reason := err.Error()
	var ce *websocket.CloseError
	if errors.As(err, &ce) {
		code = ce.Code
		reason = ce.Text
	}
	n.log.Warn("lavalink websocket closed", zap.Int("code", code), zap.String("reason", reason))
	n.handler(NodeClosedEvent{NodeRef: n.ref(), Code: code, Reason: reason})
}

func (n *Node) setStatus(s Status) {
	n.mu.Lock()
	n.status = s
	n.mu.Unlock()
}

func (n *Node) ref() NodeRef { return NodeRef{NodeID: n.cfg.ID} }

func (n *Node) String() string {
	return fmt.Sprintf("%s(%s, %s)", n.cfg.ID, n.cfg.address(), n.Status())
}
