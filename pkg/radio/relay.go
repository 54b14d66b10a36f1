// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package radio

import (
	"crypto/subtle"
	"net/http"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"
)

// Relay is the shared air for Link stations. Every frame a station sends is
// passed to every other connected station with a simulated RSSI.
type Relay struct {
	// Username and Password enable HTTP Basic auth when both are set
	Username string
	Password string

	log      *log.Logger
	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[*relayClient]struct{}
}

type relayClient struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (c *relayClient) send(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteMessage(websocket.BinaryMessage, data)
}

// NewRelay creates an empty relay
func NewRelay(logger *log.Logger) *Relay {
	return &Relay{
		log: logger,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		clients: make(map[*relayClient]struct{}),
	}
}

func (r *Relay) authorized(req *http.Request) bool {
	if r.Username == "" || r.Password == "" {
		return true
	}
	user, pass, ok := req.BasicAuth()
	if !ok {
		return false
	}
	userOK := subtle.ConstantTimeCompare([]byte(user), []byte(r.Username)) == 1
	passOK := subtle.ConstantTimeCompare([]byte(pass), []byte(r.Password)) == 1
	return userOK && passOK
}

func (r *Relay) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	if !r.authorized(req) {
		w.Header().Set("WWW-Authenticate", `Basic realm="heliograph"`)
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	conn, err := r.upgrader.Upgrade(w, req, nil)
	if err != nil {
		r.log.Warn("upgrade failed", "remote", req.RemoteAddr, "err", err)
		return
	}

	c := &relayClient{conn: conn}
	r.mu.Lock()
	r.clients[c] = struct{}{}
	count := len(r.clients)
	r.mu.Unlock()
	r.log.Info("station connected", "remote", req.RemoteAddr, "stations", count)

	defer func() {
		r.mu.Lock()
		delete(r.clients, c)
		count := len(r.clients)
		r.mu.Unlock()
		conn.Close()
		r.log.Info("station disconnected", "remote", req.RemoteAddr, "stations", count)
	}()

	for {
		messageType, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		if messageType != websocket.BinaryMessage {
			continue
		}
		env, err := ParseEnvelope(data)
		if err != nil {
			r.log.Warn("bad frame", "remote", req.RemoteAddr, "err", err)
			continue
		}
		r.broadcast(c, env)
	}
}

// broadcast stamps the RSSI and sends env to everyone except from
func (r *Relay) broadcast(from *relayClient, env *Envelope) {
	env.RSSI = SimulatedRSSI(env.Power)
	data, err := env.Marshal()
	if err != nil {
		r.log.Error("encode failed", "err", err)
		return
	}

	r.mu.Lock()
	targets := make([]*relayClient, 0, len(r.clients))
	for c := range r.clients {
		if c != from {
			targets = append(targets, c)
		}
	}
	r.mu.Unlock()

	r.log.Debug("frame", "sender", env.Sender, "freq", env.Frequency, "text", string(env.Payload), "stations", len(targets))
	for _, c := range targets {
		if err := c.send(data); err != nil {
			r.log.Warn("send failed", "err", err)
		}
	}
}

// Stations is the number of connected stations
func (r *Relay) Stations() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.clients)
}
