// internal/app/system/ratelimit/ratelimit.go
package ratelimit

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/dalemusser/waffle/pantry/text"
)

// Window counts attempts per key in fixed windows. Expired keys are
// dropped by Sweep, which the background task runner calls.
type Window struct {
	mu      sync.Mutex
	counts  map[string]*bucket
	limit   int
	period  time.Duration
	nowFunc func() time.Time
}

type bucket struct {
	n       int
	resetAt time.Time
}

// NewWindow allows limit attempts per key every period.
func NewWindow(limit int, period time.Duration) *Window {
	return &Window{
		counts:  make(map[string]*bucket),
		limit:   limit,
		period:  period,
		nowFunc: time.Now,
	}
}

// Allow records an attempt for key and reports whether it is within the limit.
func (w *Window) Allow(key string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	now := w.nowFunc()
	b, ok := w.counts[key]
	if !ok || !now.Before(b.resetAt) {
		w.counts[key] = &bucket{n: 1, resetAt: now.Add(w.period)}
		return true
	}
	if b.n >= w.limit {
		return false
	}
	b.n++
	return true
}

// Reset forgets key.
func (w *Window) Reset(key string) {
	w.mu.Lock()
	delete(w.counts, key)
	w.mu.Unlock()
}

// Sweep removes expired keys and returns how many were removed.
func (w *Window) Sweep() int {
	w.mu.Lock()
	defer w.mu.Unlock()

	now := w.nowFunc()
	n := 0
	for k, b := range w.counts {
		if !now.Before(b.resetAt) {
			delete(w.counts, k)
			n++
		}
	}
	return n
}

// Len is the number of tracked keys.
func (w *Window) Len() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.counts)
}

// ClientIP returns the first X-Forwarded-For hop, then X-Real-IP, then
// the host part of RemoteAddr.
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if ip := strings.TrimSpace(strings.Split(xff, ",")[0]); ip != "" {
			return ip
		}
	}
	if xri := strings.TrimSpace(r.Header.Get("X-Real-IP")); xri != "" {
		return xri
	}
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

// Guard limits an endpoint by client IP and by a caller-chosen secret
// such as an email address or a registration code.
type Guard struct {
	byIP    *Window
	bySubj  *Window
	ipMsg   string
	subjMsg string
}

// NewLoginGuard allows 10 attempts per IP per minute and 5 per email
// every 5 minutes.
func NewLoginGuard() *Guard {
	return &Guard{
		byIP:    NewWindow(10, time.Minute),
		bySubj:  NewWindow(5, 5*time.Minute),
		ipMsg:   "Too many sign-in attempts. Please wait a minute before trying again.",
		subjMsg: "Too many sign-in attempts for this account. Please wait a few minutes.",
	}
}

// NewJoinGuard limits registration-code guessing: 10 attempts per IP
// per minute and 20 per code every 10 minutes.
func NewJoinGuard() *Guard {
	return &Guard{
		byIP:    NewWindow(10, time.Minute),
		bySubj:  NewWindow(20, 10*time.Minute),
		ipMsg:   "Too many join attempts. Please wait a minute before trying again.",
		subjMsg: "Too many attempts with this registration code. Please wait a few minutes.",
	}
}

// NewGuard builds a guard with explicit limits.
func NewGuard(ipLimit int, ipPeriod time.Duration, subjLimit int, subjPeriod time.Duration) *Guard {
	return &Guard{
		byIP:    NewWindow(ipLimit, ipPeriod),
		bySubj:  NewWindow(subjLimit, subjPeriod),
		ipMsg:   "Too many attempts. Please wait before trying again.",
		subjMsg: "Too many attempts. Please wait before trying again.",
	}
}

func subjectKey(s string) string {
	return text.Fold(strings.TrimSpace(s))
}

// Check records an attempt. When it is over a limit the returned message
// says which one.
func (g *Guard) Check(r *http.Request, subject string) (bool, string) {
	if !g.byIP.Allow(ClientIP(r)) {
		return false, g.ipMsg
	}
	if key := subjectKey(subject); key != "" && !g.bySubj.Allow(key) {
		return false, g.subjMsg
	}
	return true, ""
}

// Succeeded clears the subject counter after a successful attempt.
func (g *Guard) Succeeded(subject string) {
	if key := subjectKey(subject); key != "" {
		g.bySubj.Reset(key)
	}
}

// Sweep drops expired counters from both windows.
func (g *Guard) Sweep() int {
	return g.byIP.Sweep() + g.bySubj.Sweep()
}
