package endpoint

import (
	"net"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rudp/config"
	"rudp/conn"
	"rudp/wire"
	"rudp/xerrors"
)

func mustBind(t *testing.T, opts ...config.Option) *Endpoint {
	t.Helper()
	e, err := Bind(config.New("127.0.0.1:0", opts...))
	require.NoError(t, err)
	t.Cleanup(e.Stop)
	return e
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	require.True(t, cond(), "condition not met within %s", timeout)
}

func TestLoopbackEcho(t *testing.T) {
	a := mustBind(t)
	b := mustBind(t)

	c, err := a.Connect(b.LocalAddr().String())
	require.NoError(t, err)

	var peer *conn.Connection
	waitFor(t, time.Second, func() bool {
		news := b.DrainNewConnections()
		if len(news) > 0 {
			peer = news[0]
		}
		return peer != nil
	})
	assert.Equal(t, c.ID, peer.ID)

	data := wire.NewPacket(wire.MethodData, c.ID, 0x1111, false, []byte{0x68, 0x69})
	_, err = a.Send(data)
	require.NoError(t, err)

	var got []wire.Packet
	waitFor(t, time.Second, func() bool {
		got = peer.Drain()
		return len(got) == 1
	})
	require.Len(t, got, 1)
	assert.Equal(t, []byte{0x68, 0x69}, got[0].Payload)
}

func TestRetransmitRecovery(t *testing.T) {
	a := mustBind(t, config.WithAckLoopInterval(100*time.Millisecond), config.WithMaxAckAttempts(10), config.WithAckInterval(50*time.Millisecond))
	b := mustBind(t, config.WithAckLoopInterval(100*time.Millisecond), config.WithMaxAckAttempts(10), config.WithAckInterval(50*time.Millisecond))

	c, err := a.Connect(b.LocalAddr().String())
	require.NoError(t, err)

	var peer *conn.Connection
	waitFor(t, time.Second, func() bool {
		news := b.DrainNewConnections()
		if len(news) > 0 {
			peer = news[0]
		}
		return peer != nil
	})

	var mu sync.Mutex
	dropped := 0
	b.dropFilter = func(_ *net.UDPAddr, p wire.Packet) bool {
		if p.Header.Method != wire.MethodAck {
			return false
		}
		mu.Lock()
		defer mu.Unlock()
		if dropped < 3 {
			dropped++
			return true
		}
		return false
	}

	p := wire.NewPacket(wire.MethodData, c.ID, 0xBEEF, true, []byte{0xAA})
	_, err = a.Send(p)
	require.NoError(t, err)

	waitFor(t, 800*time.Millisecond, func() bool {
		return a.pending.Len() == 0
	})

	var got []wire.Packet
	waitFor(t, time.Second, func() bool {
		got = peer.Drain()
		return len(got) >= 1
	})
	require.Len(t, got, 1)
	assert.Equal(t, []byte{0xAA}, got[0].Payload)
}

func TestHandshakeTimeout(t *testing.T) {
	a := mustBind(t, config.WithAckLoopInterval(100*time.Millisecond), config.WithMaxAckAttempts(5), config.WithAckInterval(50*time.Millisecond))

	sock, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1), Port: 0})
	require.NoError(t, err)
	target := sock.LocalAddr().String()
	sock.Close()

	c, err := a.Connect(target)
	require.NoError(t, err)
	assert.Equal(t, conn.StateConnecting, c.State())

	waitFor(t, 800*time.Millisecond, func() bool {
		return c.State() == conn.StateDisconnected
	})
}

func TestIdempotentDisconnect(t *testing.T) {
	a := mustBind(t)
	b := mustBind(t)

	c, err := a.Connect(b.LocalAddr().String())
	require.NoError(t, err)

	var peer *conn.Connection
	waitFor(t, time.Second, func() bool {
		news := b.DrainNewConnections()
		if len(news) > 0 {
			peer = news[0]
		}
		return peer != nil
	})

	a.Disconnect(c.ID)
	assert.NotPanics(t, func() { a.Disconnect(c.ID) })

	waitFor(t, time.Second, func() bool {
		return peer.State() == conn.StateDisconnected
	})
}

func TestStopQuiescence(t *testing.T) {
	a, err := Bind(config.New("127.0.0.1:0"))
	require.NoError(t, err)

	b := mustBind(t)
	c, err := a.Connect(b.LocalAddr().String())
	require.NoError(t, err)

	a.Stop()

	done := make(chan struct{})
	go func() {
		a.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("background goroutines did not exit after Stop")
	}

	_, err = a.Send(wire.NewPacket(wire.MethodData, c.ID, 1, false, nil))
	assert.ErrorIs(t, err, xerrors.ErrUnknownConnection)
}
