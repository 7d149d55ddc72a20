package hub

import (
	"bufio"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startHub(t *testing.T) (*Hub, context.CancelFunc, chan struct{}) {
	t.Helper()
	h := New(nil)
	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		h.Run(ctx)
		close(stopped)
	}()
	t.Cleanup(cancel)
	return h, cancel, stopped
}

// readEvent skips comments and blank lines until the next data line.
func readEvent(t *testing.T, r *bufio.Reader) string {
	t.Helper()
	for {
		line, err := r.ReadString('\n')
		require.NoError(t, err)
		if strings.HasPrefix(line, "data: ") {
			return strings.TrimSuffix(strings.TrimPrefix(line, "data: "), "\n")
		}
	}
}

func TestBroadcastReachesClient(t *testing.T) {
	h, _, _ := startHub(t)

	srv := httptest.NewServer(h)
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	require.Eventually(t, func() bool { return h.ClientCount() == 1 },
		time.Second, 10*time.Millisecond)

	h.Broadcast(map[string]string{"type": "entity_created"})

	reader := bufio.NewReader(resp.Body)
	assert.JSONEq(t, `{"type":"entity_created"}`, readEvent(t, reader))
}

func TestRunStopsOnContextCancel(t *testing.T) {
	h, cancel, stopped := startHub(t)

	srv := httptest.NewServer(h)
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Eventually(t, func() bool { return h.ClientCount() == 1 },
		time.Second, 10*time.Millisecond)

	cancel()

	select {
	case <-stopped:
	case <-time.After(time.Second):
		t.Fatal("hub did not stop")
	}
	assert.Zero(t, h.ClientCount())

	// Registration after shutdown is refused rather than hanging.
	late, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer late.Body.Close()
	assert.Equal(t, http.StatusServiceUnavailable, late.StatusCode)
}
