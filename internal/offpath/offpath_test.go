package offpath

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestRun_ReturnsValue(t *testing.T) {
	got, err := Run(context.Background(), func() (string, error) {
		return "done", nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "done" {
		t.Errorf("got %q, want %q", got, "done")
	}
}

func TestRun_ReturnsError(t *testing.T) {
	boom := errors.New("boom")
	_, err := Run(context.Background(), func() (int, error) {
		return 0, boom
	})
	if !errors.Is(err, boom) {
		t.Errorf("err = %v, want boom", err)
	}
}

func TestRun_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	release := make(chan struct{})
	defer close(release)

	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	_, err := Run(ctx, func() (int, error) {
		<-release
		return 1, nil
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if time.Since(start) > 5*time.Second {
		t.Error("Run did not return promptly after cancellation")
	}
}

func TestRun_AlreadyCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := make(chan struct{}, 1)
	_, err := Run(ctx, func() (int, error) {
		called <- struct{}{}
		return 1, nil
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	select {
	case <-called:
		t.Error("fn should not run when ctx is already done")
	default:
	}
}

func TestRun_Panic(t *testing.T) {
	_, err := Run(context.Background(), func() (int, error) {
		panic("kaboom")
	})
	if err == nil || !strings.Contains(err.Error(), "kaboom") {
		t.Errorf("err = %v, want panic error", err)
	}
}
