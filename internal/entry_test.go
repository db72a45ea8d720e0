package internal

import (
	"context"
	"errors"
	"testing"
	"time"
)

// wait runs superviseEditor in a goroutine and fails the test if it
// does not return within two seconds.
func wait(t *testing.T, ctx context.Context, editor func() error, quit func(), services ...func(context.Context) error) error {
	t.Helper()
	done := make(chan error, 1)
	go func() {
		done <- superviseEditor(ctx, editor, quit, services...)
	}()
	select {
	case err := <-done:
		return err
	case <-time.After(2 * time.Second):
		t.Fatal("superviseEditor did not return")
		return nil
	}
}

func TestSuperviseEditorCleanQuitStopsServices(t *testing.T) {
	serviceStopped := make(chan struct{})
	service := func(ctx context.Context) error {
		<-ctx.Done()
		close(serviceStopped)
		return ctx.Err()
	}

	err := wait(t, context.Background(), func() error { return nil }, func() {}, service)
	if err != nil {
		t.Errorf("clean quit returned %v, want nil", err)
	}
	select {
	case <-serviceStopped:
	default:
		t.Error("service still running after the editor quit")
	}
}

func TestSuperviseEditorPropagatesEditorError(t *testing.T) {
	boom := errors.New("boom")

	err := wait(t, context.Background(), func() error { return boom }, func() {})
	if !errors.Is(err, boom) {
		t.Errorf("err = %v, want %v", err, boom)
	}
}

func TestSuperviseEditorQuitsOnContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	quitCalled := make(chan struct{})
	editor := func() error {
		<-quitCalled
		return nil
	}
	quit := func() { close(quitCalled) }

	go cancel()
	if err := wait(t, ctx, editor, quit); err != nil {
		t.Errorf("cancelled run returned %v, want nil", err)
	}
}
