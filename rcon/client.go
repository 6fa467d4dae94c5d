// Package rcon drives a Rust game server's web-based remote console. The
// protocol is one websocket connection per command: dial
// ws://host:port/password, send a single JSON frame, read the single reply,
// close. No session is ever reused, so a stuck or half-open console
// connection can never poison later calls.
package rcon

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/net/websocket"
)

// ErrUnavailable is returned when the console is not configured
// (host/port/password missing) and a real command was requested.
var ErrUnavailable = errors.New("rcon: not configured")

// Commander is the calling side of the remote console.
type Commander interface {
	Send(ctx context.Context, command string, timeout time.Duration) (string, error)
}

// frame is the webrcon wire format, both directions.
type frame struct {
	Identifier int64  `json:"Identifier"`
	Message    string `json:"Message"`
	Name       string `json:"Name,omitempty"`
}

// Client is a stateless per-call console driver.
type Client struct {
	host     string
	port     int
	password string
	sender   string
	dryRun   bool
	log      *logrus.Logger

	nextID atomic.Int64
}

// Config holds the console target. A zero Host, Port or Password leaves the
// client unconfigured; Send then fails with ErrUnavailable unless DryRun is
// set.
type Config struct {
	Host     string
	Port     int
	Password string
	Sender   string
	DryRun   bool
}

// New creates a console client. Sender defaults to "paybridge" and is
// carried in every request frame so grants are attributable in the server
// console log.
func New(cfg Config, log *logrus.Logger) *Client {
	if cfg.Sender == "" {
		cfg.Sender = "paybridge"
	}
	if log == nil {
		log = logrus.New()
	}
	return &Client{
		host:     cfg.Host,
		port:     cfg.Port,
		password: cfg.Password,
		sender:   cfg.Sender,
		dryRun:   cfg.DryRun,
		log:      log,
	}
}

// Configured reports whether a real console target is set. Dry-run clients
// count as configured.
func (c *Client) Configured() bool {
	if c.dryRun {
		return true
	}
	return c.host != "" && c.port != 0 && c.password != ""
}

// Send executes one command and returns the console's textual reply. The
// whole exchange (dial, write, read) must finish within timeout; on expiry
// the connection is torn down and the call fails.
func (c *Client) Send(ctx context.Context, command string, timeout time.Duration) (string, error) {
	if c.dryRun {
		c.log.WithField("cmd", command).Info("rcon dry run")
		return "(dry run)", nil
	}
	if !c.Configured() {
		return "", ErrUnavailable
	}
	if timeout <= 0 {
		timeout = 8 * time.Second
	}

	url := fmt.Sprintf("ws://%s:%d/%s", c.host, c.port, c.password)
	origin := fmt.Sprintf("http://%s:%d", c.host, c.port)
	cfg, err := websocket.NewConfig(url, origin)
	if err != nil {
		return "", fmt.Errorf("rcon config: %w", err)
	}
	cfg.Dialer = &net.Dialer{Timeout: timeout}

	conn, err := websocket.DialConfig(cfg)
	if err != nil {
		return "", fmt.Errorf("rcon dial: %w", err)
	}
	defer conn.Close()

	deadline := time.Now().Add(timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	if err := conn.SetDeadline(deadline); err != nil {
		return "", fmt.Errorf("rcon deadline: %w", err)
	}

	req := frame{
		Identifier: c.nextID.Add(1),
		Message:    command,
		Name:       c.sender,
	}
	if err := websocket.JSON.Send(conn, req); err != nil {
		return "", fmt.Errorf("rcon send: %w", err)
	}

	var resp frame
	if err := websocket.JSON.Receive(conn, &resp); err != nil {
		return "", fmt.Errorf("rcon recv: %w", err)
	}
	return resp.Message, nil
}
