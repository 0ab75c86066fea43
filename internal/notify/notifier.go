// Package notify sends fire-and-forget HTTP notifications when a session
// ends. The primary use case is ntfy.sh, but any HTTP webhook works.
package notify

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/sadopc/tempo/internal/pomodoro"
	"github.com/sadopc/tempo/internal/store"
)

// Notifier posts plain-text notifications for finalized sessions.
type Notifier struct {
	url        string
	onComplete bool
	onSkip     bool
	client     *http.Client
}

func New(notifURL string, onComplete, onSkip bool) *Notifier {
	return &Notifier{
		url:        notifURL,
		onComplete: onComplete,
		onSkip:     onSkip,
		client:     &http.Client{Timeout: 10 * time.Second},
	}
}

// Hook is a pomodoro.Engine subscriber. It posts asynchronously for the
// finalized events selected by the notification flags.
func (n *Notifier) Hook(ev pomodoro.Event) {
	if n.url == "" || ev.Kind != pomodoro.EventFinalized {
		return
	}
	if (ev.Completed && !n.onComplete) || (!ev.Completed && !n.onSkip) {
		return
	}
	go n.post(Title(ev), Message(ev))
}

// Title is the X-Title header for ev.
func Title(ev pomodoro.Event) string {
	if ev.Completed {
		return ev.Mode.Label() + " complete"
	}
	return ev.Mode.Label() + " skipped"
}

// Message describes what ends with ev and what comes next.
func Message(ev pomodoro.Event) string {
	var b strings.Builder
	if ev.Session != nil {
		mins := ev.Session.DurationSeconds / 60
		fmt.Fprintf(&b, "%s (%d min) ", ev.Mode.Label(), mins)
	} else {
		fmt.Fprintf(&b, "%s ", ev.Mode.Label())
	}
	if ev.Completed {
		b.WriteString("completed.")
	} else {
		b.WriteString("skipped.")
	}
	for _, a := range ev.Unlocked {
		fmt.Fprintf(&b, " Unlocked: %s.", a.Title)
	}
	fmt.Fprintf(&b, " Next: %s.", nextLabel(ev))
	return b.String()
}

// nextLabel names what follows a session of ev.Mode.
func nextLabel(ev pomodoro.Event) string {
	if ev.Mode == store.ModeFocus {
		return "a break"
	}
	return store.ModeFocus.Label()
}

// post errors are discarded so a failing webhook never interrupts a session.
func (n *Notifier) post(title, message string) {
	req, err := http.NewRequest(http.MethodPost, n.url, strings.NewReader(message))
	if err != nil {
		return
	}
	req.Header.Set("Content-Type", "text/plain")
	req.Header.Set("X-Title", title)
	resp, err := n.client.Do(req)
	if err != nil {
		return
	}
	resp.Body.Close()
}
