package resource

import (
	"context"
	"errors"
	"testing"
)

func TestMatchReady(t *testing.T) {
	r := New(func(ctx context.Context) (string, error) {
		return "hello", nil
	})
	defer r.Close()
	waitFor(t, r.IsReady, "commit")

	got, ok := Match(r,
		OnWaiting[string](func() string { return "waiting" }),
		OnFailure[string](func(err error) string { return "error" }),
		OnReady[string, string](func(data string) string { return data }),
	)
	if !ok || got != "hello" {
		t.Errorf("Match = %q, %v; want 'hello', true", got, ok)
	}
}

func TestMatchError(t *testing.T) {
	r := New(func(ctx context.Context) (string, error) {
		return "", errors.New("failed")
	})
	defer r.Close()
	waitFor(t, r.IsError, "error commit")

	got, ok := Match(r,
		OnFailure[string](func(err error) string { return err.Error() }),
		OnReady[string, string](func(data string) string { return data }),
	)
	if !ok || got != "failed" {
		t.Errorf("Match = %q, %v; want 'failed', true", got, ok)
	}
}

func TestMatchWaiting(t *testing.T) {
	release := make(chan struct{})
	r := New(func(ctx context.Context) (string, error) {
		<-release
		return "data", nil
	})
	defer r.Close()
	defer close(release)

	got, ok := Match(r,
		OnWaiting[string](func() string { return "waiting" }),
		OnReady[string, string](func(data string) string { return data }),
	)
	if !ok || got != "waiting" {
		t.Errorf("Match = %q, %v; want 'waiting', true", got, ok)
	}
}

func TestMatchPendingDeferred(t *testing.T) {
	r := New(func(ctx context.Context) (string, error) {
		return "data", nil
	}, Deferred())
	defer r.Close()

	got, ok := Match(r,
		OnPending[string](func() string { return "idle" }),
		OnLoading[string](func() string { return "loading" }),
	)
	if !ok || got != "idle" {
		t.Errorf("Match = %q, %v; want 'idle', true", got, ok)
	}
}

func TestMatchNoHandlerMatches(t *testing.T) {
	r := New(func(ctx context.Context) (string, error) {
		return "data", nil
	})
	defer r.Close()
	waitFor(t, r.IsReady, "commit")

	_, ok := Match(r,
		OnFailure[string](func(err error) string { return "error" }),
	)
	if ok {
		t.Error("Expected no match when only a failure handler is given")
	}
}
