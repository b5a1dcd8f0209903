package mail

import (
	"context"
	"net"
	"testing"
	"time"
)

func TestSendPasswordResetMissingConfig(t *testing.T) {
	var nilMailer *PasswordResetMailer
	if err := nilMailer.SendPasswordReset(context.Background(), "user@example.com", "token"); err == nil {
		t.Errorf("expected a nil mailer to report an error")
	}

	m := NewPasswordResetMailer("", "", "", "", "")
	if err := m.SendPasswordReset(context.Background(), "user@example.com", "token"); err == nil {
		t.Errorf("expected an unconfigured mailer to report an error")
	}
}

func TestSendPasswordResetUnreachableServer(t *testing.T) {
	// A port that is not listening: the dial fails, it does not hang.
	m := NewPasswordResetMailer("127.0.0.1", "1", "", "", "reset@example.com")
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	if err := m.SendPasswordReset(ctx, "user@example.com", "token"); err == nil {
		t.Fatalf("expected an error for an unreachable server")
	}
}

func TestSendPasswordResetBoundedByDeadline(t *testing.T) {
	// A server that accepts the connection and then says nothing. The send
	// must give up at the context deadline instead of waiting on the greeting.
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	t.Cleanup(func() { _ = ln.Close() })
	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			go func(c net.Conn) {
				time.Sleep(10 * time.Second)
				_ = c.Close()
			}(conn)
		}
	}()

	host, port, err := net.SplitHostPort(ln.Addr().String())
	if err != nil {
		t.Fatalf("split addr: %v", err)
	}
	m := NewPasswordResetMailer(host, port, "", "", "reset@example.com")

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()

	start := time.Now()
	err = m.SendPasswordReset(ctx, "user@example.com", "token")
	elapsed := time.Since(start)

	if err == nil {
		t.Fatalf("expected an error from a silent server")
	}
	if elapsed > 3*time.Second {
		t.Fatalf("send not bounded by the deadline, took %v", elapsed)
	}
}
