package service

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/vogiaan1904/ticketbottle-booking/pkg/logger"
)

func TestDispatcherRunsEnqueuedTasks(t *testing.T) {
	d := NewDispatcher(8, logger.InitializeTestZapLogger())

	var ran atomic.Int32
	for i := 0; i < 5; i++ {
		ok := d.Enqueue(context.Background(), "task", func(ctx context.Context) error {
			ran.Add(1)
			return nil
		})
		if !ok {
			t.Fatal("enqueue refused with free capacity")
		}
	}

	d.Close()
	if got := ran.Load(); got != 5 {
		t.Fatalf("ran %d tasks, want 5", got)
	}
}

func TestDispatcherDropsWhenFull(t *testing.T) {
	d := NewDispatcher(1, logger.InitializeTestZapLogger())
	defer d.Close()

	block := make(chan struct{})
	// Occupy the worker, then fill the single queue slot.
	d.Enqueue(context.Background(), "blocker", func(ctx context.Context) error {
		<-block
		return nil
	})

	deadline := time.After(time.Second)
	for {
		if ok := d.Enqueue(context.Background(), "filler", func(ctx context.Context) error { return nil }); !ok {
			break
		}
		select {
		case <-deadline:
			t.Fatal("dispatcher never reported a full queue")
		default:
		}
	}

	close(block)
}

func TestDispatcherEnqueueAfterClose(t *testing.T) {
	d := NewDispatcher(8, logger.InitializeTestZapLogger())
	d.Close()

	if ok := d.Enqueue(context.Background(), "late", func(ctx context.Context) error { return nil }); ok {
		t.Fatal("enqueue accepted after close")
	}
}
