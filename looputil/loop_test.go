package looputil

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRunStopsOnContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var calls int32

	done := make(chan struct{})
	go func() {
		Run(ctx, nil, 1000, func(ctx context.Context, interval time.Duration) {
			atomic.AddInt32(&calls, 1)
		})
		close(done)
	}()

	time.Sleep(30 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not stop after context cancellation")
	}
	assert.Greater(t, atomic.LoadInt32(&calls), int32(0))
}

func TestRunStopsOnStopChannel(t *testing.T) {
	stop := make(chan struct{})
	done := make(chan struct{})

	go func() {
		Run(context.Background(), stop, 1000, func(ctx context.Context, interval time.Duration) {})
		close(done)
	}()

	time.Sleep(10 * time.Millisecond)
	close(stop)

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not stop after stop channel closed")
	}
}

func TestRunMeasuresInterval(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	intervals := make(chan time.Duration, 8)

	go Run(ctx, nil, 100, func(ctx context.Context, interval time.Duration) {
		select {
		case intervals <- interval:
		default:
		}
	})
	defer cancel()

	first := <-intervals
	assert.Equal(t, time.Duration(0), first)

	second := <-intervals
	assert.Greater(t, second, time.Duration(0))
}
