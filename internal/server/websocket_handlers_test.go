package server

import (
	"context"
	"net"
	"net/http"
	"testing"
	"time"

	gorillaws "github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotificationsStreamOverWebsocket(t *testing.T) {
	env := newTestEnv(t, nil)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	require.NoError(t, env.srv.hub.StartWiring(ctx, env.srv.notifier))

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	go func() { _ = env.app.Listener(ln) }()
	t.Cleanup(func() { _ = env.app.Shutdown() })

	login := env.loginResult(t, "hal@example.com")
	resp := env.do(t, http.MethodPost, "/api/ws/ticket", login.Token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var ticket struct {
		Ticket string `json:"ticket"`
	}
	decode(t, resp, &ticket)

	url := "ws://" + ln.Addr().String() + "/api/ws/notifications?ticket=" + ticket.Ticket
	conn, _, err := gorillaws.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer func() { _ = conn.Close() }()

	require.Eventually(t, func() bool { return env.srv.hub.IsOnline(login.User.ID) }, 2*time.Second, 20*time.Millisecond)

	require.NoError(t, env.srv.notifier.PublishUser(ctx, login.User.ID, `{"type":"motivational","title":"Keep going"}`))

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(3*time.Second)))
	_, msg, err := conn.ReadMessage()
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"motivational","title":"Keep going"}`, string(msg))

	// Tickets are single use.
	_, resp2, err := gorillaws.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	if resp2 != nil {
		assert.Equal(t, http.StatusUnauthorized, resp2.StatusCode)
	}
}
