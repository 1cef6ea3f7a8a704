package timedio

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestSleepCompletes(t *testing.T) {
	c := testCanceller(t)
	start := time.Now()
	if err := Sleep(c, 20*time.Millisecond); err != nil {
		t.Fatalf("Sleep: %v", err)
	}
	if time.Since(start) < 20*time.Millisecond {
		t.Fatal("Sleep returned early")
	}
}

func TestSleepInterrupted(t *testing.T) {
	c := testCanceller(t)
	go func() {
		time.Sleep(30 * time.Millisecond)
		c.Cancel()
	}()

	start := time.Now()
	err := Sleep(c, 30*time.Second)
	if !errors.Is(err, ErrCancelled) {
		t.Fatalf("err = %v, want ErrCancelled", err)
	}
	if time.Since(start) > 2*time.Second {
		t.Fatal("cancellation not observed promptly")
	}
}

func TestSleepAlreadyCancelled(t *testing.T) {
	c := testCanceller(t)
	c.Cancel()
	if err := Sleep(c, 0); !errors.Is(err, ErrCancelled) {
		t.Fatalf("err = %v, want ErrCancelled", err)
	}
}

func TestCancellerFollowsParent(t *testing.T) {
	parent, cancel := context.WithCancel(context.Background())
	c, err := NewCanceller(parent)
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()

	cancel()
	select {
	case <-c.Done():
	case <-time.After(time.Second):
		t.Fatal("canceller not cancelled with its parent")
	}
	if !c.Cancelled() {
		t.Fatal("Cancelled() = false")
	}
}

func TestCancellerCloseTwice(t *testing.T) {
	c, err := NewCanceller(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if err := c.Close(); err != nil {
		t.Fatalf("first Close: %v", err)
	}
	if err := c.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
}
