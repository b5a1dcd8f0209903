package logging

import (
	"io"
	"net"
	"strings"
	"sync"
	"time"
)

// LogstashWriter mirrors log lines to a Logstash TCP input without ever
// blocking the request path. One connection is kept open; while Logstash is
// unreachable, writes are dropped and reconnection is retried on a cool-down.
type LogstashWriter struct {
	addr string

	mu        sync.Mutex
	conn      net.Conn
	nextRetry time.Time
	closed    bool
}

const (
	dialTimeout   = 2 * time.Second
	writeTimeout  = time.Second
	retryInterval = 5 * time.Second
)

func NewLogstashWriter(addr string) *LogstashWriter {
	return &LogstashWriter{addr: strings.TrimSpace(addr)}
}

// Write implements io.Writer. Failures are swallowed after scheduling a
// reconnect; dropping log lines beats stalling logins.
func (w *LogstashWriter) Write(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}

	data := make([]byte, len(p))
	copy(data, p)
	if data[len(data)-1] != '\n' {
		data = append(data, '\n')
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return 0, io.ErrClosedPipe
	}
	if !w.ensureConn() {
		return len(p), nil
	}

	_ = w.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	if _, err := w.conn.Write(data); err != nil {
		w.dropConn()
	}
	return len(p), nil
}

func (w *LogstashWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.closed = true
	if w.conn != nil {
		err := w.conn.Close()
		w.conn = nil
		return err
	}
	return nil
}

func (w *LogstashWriter) ensureConn() bool {
	if w.conn != nil {
		return true
	}
	if time.Now().Before(w.nextRetry) {
		return false
	}
	conn, err := net.DialTimeout("tcp", w.addr, dialTimeout)
	if err != nil {
		w.nextRetry = time.Now().Add(retryInterval)
		return false
	}
	w.conn = conn
	return true
}

func (w *LogstashWriter) dropConn() {
	if w.conn != nil {
		_ = w.conn.Close()
		w.conn = nil
	}
	w.nextRetry = time.Now().Add(retryInterval)
}
