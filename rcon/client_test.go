package rcon_test

import (
	"context"
	"testing"
	"time"

	"github.com/loverust/paybridge/rcon"
	rcontest "github.com/loverust/paybridge/testing"
)

func TestSendRoundTrip(t *testing.T) {
	srv := rcontest.NewTestRcon("secret")
	defer srv.Close()

	client := rcon.New(rcon.Config{
		Host:     srv.Host(),
		Port:     srv.Port(),
		Password: "secret",
	}, nil)

	out, err := client.Send(context.Background(), "loverustvip.grant 76561199026505924 30d", 5*time.Second)
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if out != "ok" {
		t.Errorf("reply = %q, want ok", out)
	}

	cmds := srv.Commands()
	if len(cmds) != 1 || cmds[0] != "loverustvip.grant 76561199026505924 30d" {
		t.Errorf("server saw %v", cmds)
	}
}

func TestSendTimeout(t *testing.T) {
	srv := rcontest.NewTestRcon("secret")
	defer srv.Close()
	srv.FailCommands("loverustvip.")

	client := rcon.New(rcon.Config{
		Host:     srv.Host(),
		Port:     srv.Port(),
		Password: "secret",
	}, nil)

	_, err := client.Send(context.Background(), "loverustvip.grant x 30d", 200*time.Millisecond)
	if err == nil {
		t.Fatal("expected timeout error")
	}
}

func TestSendUnconfigured(t *testing.T) {
	client := rcon.New(rcon.Config{}, nil)
	if client.Configured() {
		t.Fatal("empty config reported as configured")
	}
	_, err := client.Send(context.Background(), "status", time.Second)
	if err != rcon.ErrUnavailable {
		t.Errorf("err = %v, want ErrUnavailable", err)
	}
}

func TestDryRunSkipsNetwork(t *testing.T) {
	client := rcon.New(rcon.Config{DryRun: true}, nil)
	out, err := client.Send(context.Background(), "status", time.Second)
	if err != nil {
		t.Fatalf("dry run: %v", err)
	}
	if out == "" {
		t.Error("dry run returned empty result")
	}
	if !client.Configured() {
		t.Error("dry-run client should report configured")
	}
}
