package service

import (
	"context"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/iliyamo/vehicle-rental/internal/queue"
)

func TestPublishGivesUpAtContextDeadline(t *testing.T) {
	// Accepts connections but never speaks AMQP.
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { _ = ln.Close() })
	var (
		mu    sync.Mutex
		conns []net.Conn
	)
	go func() {
		for {
			c, err := ln.Accept()
			if err != nil {
				return
			}
			mu.Lock()
			conns = append(conns, c)
			mu.Unlock()
		}
	}()
	t.Cleanup(func() {
		mu.Lock()
		defer mu.Unlock()
		for _, c := range conns {
			_ = c.Close()
		}
	})

	p := NewAMQPPublisher("amqp://guest:guest@" + ln.Addr().String() + "/")
	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	start := time.Now()
	err = p.Publish(ctx, queue.AuditEvent{Action: queue.ActionLogin})
	require.Error(t, err)
	require.Less(t, time.Since(start), 3*time.Second)
}

func TestDialTimeout(t *testing.T) {
	require.Equal(t, 5*time.Second, dialTimeout(context.Background()))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	d := dialTimeout(ctx)
	require.LessOrEqual(t, d, time.Second)
	require.Greater(t, d, 500*time.Millisecond)

	expired, cancel2 := context.WithTimeout(context.Background(), -time.Second)
	defer cancel2()
	require.Equal(t, 10*time.Millisecond, dialTimeout(expired))
}

func TestEmitIgnoresNilPublisher(t *testing.T) {
	Emit(nil, queue.AuditEvent{Action: queue.ActionLogin})
}
