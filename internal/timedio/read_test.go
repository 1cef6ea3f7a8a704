package timedio

import (
	"context"
	"errors"
	"testing"
	"time"

	"golang.org/x/sys/unix"
)

func testCanceller(t *testing.T) *Canceller {
	t.Helper()
	c, err := NewCanceller(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = c.Close() })
	return c
}

// testPipe returns the read and write ends of a close-on-exec pipe.
func testPipe(t *testing.T) (int, int) {
	t.Helper()
	var p [2]int
	if err := unix.Pipe2(p[:], unix.O_CLOEXEC); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		_ = unix.Close(p[0])
		_ = unix.Close(p[1])
	})
	return p[0], p[1]
}

func TestReadData(t *testing.T) {
	c := testCanceller(t)
	r, w := testPipe(t)

	if _, err := unix.Write(w, []byte("hello")); err != nil {
		t.Fatal(err)
	}

	timeout := 2 * time.Second
	buf := make([]byte, 64)
	n, err := Read(c, r, buf, &timeout)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if string(buf[:n]) != "hello" {
		t.Fatalf("got %q, want hello", buf[:n])
	}
	if timeout <= 0 || timeout > 2*time.Second {
		t.Fatalf("remaining timeout = %v", timeout)
	}
}

func TestReadEOF(t *testing.T) {
	c := testCanceller(t)
	r, w := testPipe(t)
	_ = unix.Close(w)

	timeout := time.Second
	n, err := Read(c, r, make([]byte, 8), &timeout)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if n != 0 {
		t.Fatalf("n = %d, want 0 at EOF", n)
	}
}

func TestReadTimeout(t *testing.T) {
	c := testCanceller(t)
	r, _ := testPipe(t)

	timeout := 200 * time.Millisecond
	start := time.Now()
	_, err := Read(c, r, make([]byte, 8), &timeout)
	elapsed := time.Since(start)

	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("err = %v, want ErrTimeout", err)
	}
	if elapsed < 190*time.Millisecond {
		t.Fatalf("returned after %v, before the timeout", elapsed)
	}
	if elapsed > 2*time.Second {
		t.Fatalf("returned after %v, far past the timeout", elapsed)
	}
	if timeout != 0 {
		t.Fatalf("remaining timeout = %v, want 0", timeout)
	}
}

func TestReadZeroTimeoutPollsOnce(t *testing.T) {
	c := testCanceller(t)
	r, _ := testPipe(t)

	var timeout time.Duration
	_, err := Read(c, r, make([]byte, 8), &timeout)
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("err = %v, want ErrTimeout", err)
	}
}

func TestReadCancelledWhileBlocked(t *testing.T) {
	c := testCanceller(t)
	r, _ := testPipe(t)

	go func() {
		time.Sleep(50 * time.Millisecond)
		c.Cancel()
	}()

	timeout := 10 * time.Second
	start := time.Now()
	_, err := Read(c, r, make([]byte, 8), &timeout)
	if !errors.Is(err, ErrCancelled) {
		t.Fatalf("err = %v, want ErrCancelled", err)
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Fatalf("cancellation took %v", elapsed)
	}
}

func TestReadAlreadyCancelled(t *testing.T) {
	c := testCanceller(t)
	r, w := testPipe(t)
	_, _ = unix.Write(w, []byte("x"))
	c.Cancel()

	timeout := time.Second
	_, err := Read(c, r, make([]byte, 8), &timeout)
	if !errors.Is(err, ErrCancelled) {
		t.Fatalf("err = %v, want ErrCancelled", err)
	}
}

func TestReadBadDescriptor(t *testing.T) {
	c := testCanceller(t)

	var p [2]int
	if err := unix.Pipe2(p[:], unix.O_CLOEXEC); err != nil {
		t.Fatal(err)
	}
	_ = unix.Close(p[0])
	_ = unix.Close(p[1])

	timeout := 100 * time.Millisecond
	_, err := Read(c, p[0], make([]byte, 8), &timeout)
	if err == nil {
		t.Fatal("expected error for closed descriptor")
	}
	if errors.Is(err, ErrTimeout) || errors.Is(err, ErrCancelled) {
		t.Fatalf("err = %v, want an OS error", err)
	}
}

func TestReadNonBlockingSpuriousWakeup(t *testing.T) {
	c := testCanceller(t)
	r, w := testPipe(t)
	if err := unix.SetNonblock(r, true); err != nil {
		t.Fatal(err)
	}

	go func() {
		time.Sleep(50 * time.Millisecond)
		_, _ = unix.Write(w, []byte("late"))
	}()

	timeout := 2 * time.Second
	buf := make([]byte, 8)
	n, err := Read(c, r, buf, &timeout)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if string(buf[:n]) != "late" {
		t.Fatalf("got %q, want late", buf[:n])
	}
}

func TestPollTimeout(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want int
	}{
		{0, 0},
		{-time.Second, 0},
		{time.Nanosecond, 1},
		{time.Millisecond, 1},
		{1500 * time.Microsecond, 2},
		{time.Second, 1000},
	}
	for _, tt := range tests {
		if got := pollTimeout(tt.d); got != tt.want {
			t.Errorf("pollTimeout(%v) = %d, want %d", tt.d, got, tt.want)
		}
	}
}
