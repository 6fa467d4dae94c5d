// Package testing provides utilities for testing applications that use
// paybridge. It provides a fake game-server console that speaks the webrcon
// wire protocol, enabling integration tests without a live game server.
//
// Example usage:
//
//	srv := testing.NewTestRcon("secret")
//	defer srv.Close()
//
//	client := rcon.New(rcon.Config{
//		Host:     srv.Host(),
//		Port:     srv.Port(),
//		Password: "secret",
//	}, nil)
package testing

import (
	"net"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"

	"golang.org/x/net/websocket"
)

type rconFrame struct {
	Identifier int64  `json:"Identifier"`
	Message    string `json:"Message"`
	Name       string `json:"Name,omitempty"`
}

// TestRcon is a fake webrcon endpoint. Each accepted connection serves
// exactly one request/response exchange, like the real console bridge. It
// records every command it receives and can be told to fail specific
// command prefixes.
type TestRcon struct {
	server   *httptest.Server
	password string

	mu       sync.Mutex
	commands []string
	failFor  map[string]bool
}

// NewTestRcon starts a fake console protected by password. Connections to
// any other path are rejected, mirroring how the real console treats a bad
// password.
func NewTestRcon(password string) *TestRcon {
	t := &TestRcon{password: password, failFor: make(map[string]bool)}
	handler := websocket.Handler(func(conn *websocket.Conn) {
		defer conn.Close()
		if strings.Trim(conn.Request().URL.Path, "/") != t.password {
			return
		}
		var req rconFrame
		if err := websocket.JSON.Receive(conn, &req); err != nil {
			return
		}
		t.mu.Lock()
		t.commands = append(t.commands, req.Message)
		fail := false
		for prefix := range t.failFor {
			if strings.HasPrefix(req.Message, prefix) {
				fail = true
			}
		}
		t.mu.Unlock()
		if fail {
			// Drop the connection without replying; the client times out.
			return
		}
		_ = websocket.JSON.Send(conn, rconFrame{Identifier: req.Identifier, Message: "ok"})
	})
	t.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handler.ServeHTTP(w, r)
	}))
	return t
}

// Host returns the listen host of the fake console.
func (t *TestRcon) Host() string {
	host, _, _ := net.SplitHostPort(strings.TrimPrefix(t.server.URL, "http://"))
	return host
}

// Port returns the listen port of the fake console.
func (t *TestRcon) Port() int {
	_, portStr, _ := net.SplitHostPort(strings.TrimPrefix(t.server.URL, "http://"))
	port, _ := strconv.Atoi(portStr)
	return port
}

// Commands returns a copy of every command received so far.
func (t *TestRcon) Commands() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]string, len(t.commands))
	copy(out, t.commands)
	return out
}

// FailCommands makes the console hang up without replying on any command
// starting with prefix.
func (t *TestRcon) FailCommands(prefix string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.failFor[prefix] = true
}

// Close shuts down the fake console.
func (t *TestRcon) Close() {
	t.server.Close()
}
