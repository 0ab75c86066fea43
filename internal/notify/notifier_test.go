package notify

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/sadopc/tempo/internal/pomodoro"
	"github.com/sadopc/tempo/internal/store"
)

// captureServer starts an httptest.Server that records incoming requests.
func captureServer(t *testing.T) (*httptest.Server, func() []capturedReq) {
	t.Helper()
	var mu sync.Mutex
	var reqs []capturedReq
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		mu.Lock()
		reqs = append(reqs, capturedReq{
			method:      r.Method,
			body:        string(body),
			contentType: r.Header.Get("Content-Type"),
			title:       r.Header.Get("X-Title"),
		})
		mu.Unlock()
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(srv.Close)
	return srv, func() []capturedReq {
		mu.Lock()
		defer mu.Unlock()
		out := make([]capturedReq, len(reqs))
		copy(out, reqs)
		return out
	}
}

type capturedReq struct {
	method      string
	body        string
	contentType string
	title       string
}

func waitForRequests(t *testing.T, collect func() []capturedReq, count int) []capturedReq {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if got := collect(); len(got) >= count {
			return got
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %d request(s)", count)
	return nil
}

// assertNoRequests waits briefly and fails if anything arrived.
func assertNoRequests(t *testing.T, collect func() []capturedReq) {
	t.Helper()
	time.Sleep(100 * time.Millisecond)
	if got := collect(); len(got) != 0 {
		t.Fatalf("expected no requests, got %d", len(got))
	}
}

func finalized(mode store.Mode, completed bool) pomodoro.Event {
	return pomodoro.Event{
		Kind:      pomodoro.EventFinalized,
		Mode:      mode,
		Completed: completed,
		Session:   &store.Session{Mode: mode, DurationSeconds: 1500, Completed: completed},
	}
}

func TestHook_OnComplete(t *testing.T) {
	srv, collect := captureServer(t)

	n := New(srv.URL, true, false)
	n.Hook(finalized(store.ModeFocus, true))

	reqs := waitForRequests(t, collect, 1)
	r := reqs[0]
	if r.method != http.MethodPost {
		t.Errorf("method = %q, want POST", r.method)
	}
	if r.contentType != "text/plain" {
		t.Errorf("content-type = %q", r.contentType)
	}
	if r.title != "Focus complete" {
		t.Errorf("title = %q", r.title)
	}
	if !strings.Contains(r.body, "Focus (25 min) completed.") {
		t.Errorf("body = %q", r.body)
	}
}

func TestHook_SkipDisabled(t *testing.T) {
	srv, collect := captureServer(t)
	n := New(srv.URL, true, false)
	n.Hook(finalized(store.ModeFocus, false))
	assertNoRequests(t, collect)
}

func TestHook_SkipEnabled(t *testing.T) {
	srv, collect := captureServer(t)
	n := New(srv.URL, false, true)
	n.Hook(finalized(store.ModeShortBreak, false))
	reqs := waitForRequests(t, collect, 1)
	if reqs[0].title != "Short Break skipped" {
		t.Errorf("title = %q", reqs[0].title)
	}
}

func TestHook_IgnoresOtherEvents(t *testing.T) {
	srv, collect := captureServer(t)
	n := New(srv.URL, true, true)
	n.Hook(pomodoro.Event{Kind: pomodoro.EventTick, Mode: store.ModeFocus})
	n.Hook(pomodoro.Event{Kind: pomodoro.EventStateChanged, Mode: store.ModeFocus})
	assertNoRequests(t, collect)
}

func TestHook_EmptyURL(t *testing.T) {
	n := New("", true, true)
	// Must not panic or block.
	n.Hook(finalized(store.ModeFocus, true))
}

func TestHook_ServerDown(t *testing.T) {
	srv, _ := captureServer(t)
	url := srv.URL
	srv.Close()
	n := New(url, true, true)
	n.Hook(finalized(store.ModeFocus, true))
	time.Sleep(50 * time.Millisecond)
}

func TestMessage(t *testing.T) {
	ev := finalized(store.ModeFocus, true)
	ev.Unlocked = []store.Achievement{{Title: "First Focus"}}
	msg := Message(ev)
	for _, want := range []string{"completed.", "Unlocked: First Focus.", "Next: a break."} {
		if !strings.Contains(msg, want) {
			t.Errorf("message %q missing %q", msg, want)
		}
	}

	msg = Message(pomodoro.Event{Kind: pomodoro.EventFinalized, Mode: store.ModeLongBreak, Completed: true})
	if !strings.Contains(msg, "Next: Focus.") {
		t.Errorf("message %q should point to focus", msg)
	}
}
