package ratelimit

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time { return c.t }

func TestWindow_AllowAndExpire(t *testing.T) {
	clock := &fakeClock{t: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	w := NewWindow(2, time.Minute)
	w.nowFunc = clock.now

	assert.True(t, w.Allow("a"))
	assert.True(t, w.Allow("a"))
	assert.False(t, w.Allow("a"))
	assert.True(t, w.Allow("b"), "keys are independent")

	clock.t = clock.t.Add(time.Minute)
	assert.True(t, w.Allow("a"), "window resets after the period")
}

func TestWindow_Sweep(t *testing.T) {
	clock := &fakeClock{t: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	w := NewWindow(5, time.Minute)
	w.nowFunc = clock.now

	w.Allow("a")
	clock.t = clock.t.Add(30 * time.Second)
	w.Allow("b")
	clock.t = clock.t.Add(45 * time.Second)

	assert.Equal(t, 1, w.Sweep())
	assert.Equal(t, 1, w.Len())
}

func TestClientIP(t *testing.T) {
	r := httptest.NewRequest("POST", "/login", nil)
	r.RemoteAddr = "10.0.0.9:5555"
	assert.Equal(t, "10.0.0.9", ClientIP(r))

	r.Header.Set("X-Real-IP", "10.0.0.2")
	assert.Equal(t, "10.0.0.2", ClientIP(r))

	r.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")
	assert.Equal(t, "203.0.113.7", ClientIP(r))
}

func TestGuard_SubjectLimitAndReset(t *testing.T) {
	g := NewGuard(100, time.Minute, 2, time.Minute)
	r := httptest.NewRequest("POST", "/login", nil)

	ok, _ := g.Check(r, "Ann@Example.com")
	require.True(t, ok)
	ok, _ = g.Check(r, "ann@example.com ")
	require.True(t, ok)
	ok, msg := g.Check(r, "ANN@example.com")
	assert.False(t, ok, "subject key is case-folded")
	assert.NotEmpty(t, msg)

	g.Succeeded("ann@example.com")
	ok, _ = g.Check(r, "ann@example.com")
	assert.True(t, ok)
}

func TestGuard_IPLimit(t *testing.T) {
	g := NewGuard(1, time.Minute, 100, time.Minute)
	r := httptest.NewRequest("POST", "/groupmembers/join", nil)

	ok, _ := g.Check(r, "CODE1")
	require.True(t, ok)
	ok, _ = g.Check(r, "CODE2")
	assert.False(t, ok)
}

func TestSweepJob(t *testing.T) {
	g := NewLoginGuard()
	job := SweepJob(time.Minute, g)
	assert.Equal(t, "ratelimit-sweep", job.Name)
	assert.NoError(t, job.Run(context.Background()))
}
