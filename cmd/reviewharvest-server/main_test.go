package main

import (
	"context"
	"io"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type reply struct {
	body string
	err  error
}

// serve runs h behind newHTTPServer on a loopback port and returns the
// server and its base URL.
func serve(t *testing.T, ctx context.Context, h http.Handler) (*http.Server, string) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	srv := newHTTPServer(ctx, ln.Addr().String(), h)
	go func() { _ = srv.Serve(ln) }()
	return srv, "http://" + ln.Addr().String()
}

func get(url string) <-chan reply {
	out := make(chan reply, 1)
	go func() {
		resp, err := http.Get(url)
		if err != nil {
			out <- reply{err: err}
			return
		}
		defer resp.Body.Close()
		b, err := io.ReadAll(resp.Body)
		out <- reply{body: string(b), err: err}
	}()
	return out
}

func waitFor(t *testing.T, ch <-chan struct{}) {
	t.Helper()
	select {
	case <-ch:
	case <-time.After(5 * time.Second):
		t.Fatal("handler was not entered")
	}
}

// A canceled base context reaches running handlers, and drain waits for
// them to finish writing their response.
func TestShutdownCancelsInFlightRequests(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	entered := make(chan struct{})
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		close(entered)
		<-r.Context().Done()
		_, _ = w.Write([]byte("partial results exported"))
	})
	srv, url := serve(t, ctx, h)

	resp := get(url)
	waitFor(t, entered)

	cancel()
	require.NoError(t, drain(srv, 5*time.Second))

	r := <-resp
	require.NoError(t, r.err)
	assert.Equal(t, "partial results exported", r.body)
}

func TestDrainGivesUpAfterTimeout(t *testing.T) {
	release := make(chan struct{})
	t.Cleanup(func() { close(release) })

	entered := make(chan struct{})
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		close(entered)
		<-release
	})
	srv, url := serve(t, context.Background(), h)
	t.Cleanup(func() { _ = srv.Close() })

	_ = get(url)
	waitFor(t, entered)

	err := drain(srv, 50*time.Millisecond)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
