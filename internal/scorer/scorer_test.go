package scorer

import (
	"bufio"
	"context"
	"io"
	"log/slog"
	"net"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sevigo/cbng-reviewer/internal/config"
)

// fakeCore accepts one connection, reads the request up to the closing
// WPEditSet tag, writes reply and closes.
func fakeCore(t *testing.T, reply string) (config.ScorerConfig, <-chan string) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { ln.Close() })

	received := make(chan string, 1)
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()

		var sb strings.Builder
		r := bufio.NewReader(conn)
		for !strings.HasSuffix(sb.String(), "</WPEditSet>") {
			b, err := r.ReadByte()
			if err != nil {
				break
			}
			sb.WriteByte(b)
		}
		received <- sb.String()
		_, _ = io.WriteString(conn, reply)
	}()

	addr := ln.Addr().(*net.TCPAddr)
	return config.ScorerConfig{Host: "127.0.0.1", Port: addr.Port, Timeout: 2 * time.Second}, received
}

func TestScore(t *testing.T) {
	cfg, received := fakeCore(t, `<WPEditSet><WPEdit><editid>1234</editid><score>0.8731</score></WPEdit></WPEditSet>`)
	client := NewClient(cfg, slog.New(slog.DiscardHandler))

	score, ok := client.Score(context.Background(), 1234, "<WPEdit>\n  <EditID>1234</EditID>\n</WPEdit>")
	require.True(t, ok)
	assert.InDelta(t, 0.8731, score, 1e-9)

	assert.Equal(t,
		"<?xml version=\"1.0\"?>\n<WPEditSet>\n<WPEdit>\n  <EditID>1234</EditID>\n</WPEdit>\n</WPEditSet>",
		<-received)
}

func TestScore_SoftFailures(t *testing.T) {
	tests := []struct {
		name  string
		reply string
	}{
		{name: "not xml", reply: "ERROR"},
		{name: "no score element", reply: `<WPEditSet><WPEdit><editid>1</editid></WPEdit></WPEditSet>`},
		{name: "non numeric score", reply: `<WPEditSet><WPEdit><score>high</score></WPEdit></WPEditSet>`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, _ := fakeCore(t, tt.reply)
			score, ok := NewClient(cfg, slog.New(slog.DiscardHandler)).Score(context.Background(), 1, "<WPEdit/>")
			assert.False(t, ok)
			assert.Zero(t, score)
		})
	}
}

func TestScore_ConnectionRefused(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := ln.Addr().(*net.TCPAddr).Port
	require.NoError(t, ln.Close())

	client := NewClient(config.ScorerConfig{Host: "127.0.0.1", Port: port, Timeout: time.Second}, slog.New(slog.DiscardHandler))
	_, ok := client.Score(context.Background(), 1, "<WPEdit/>")
	assert.False(t, ok)
	assert.Equal(t, "127.0.0.1:"+strconv.Itoa(port), client.addr)
}
