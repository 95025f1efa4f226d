package rate

import (
	"testing"
	"time"
)

func TestLimiter(t *testing.T) {
	interval := 10 * time.Millisecond
	l := New(1, interval, time.Minute)
	defer l.Stop()

	tooshort := 1 * time.Millisecond

	client := "192.0.2.1"
	expected := []bool{true, false, true, true, false, false}
	waits := []time.Duration{tooshort, interval, interval, tooshort, tooshort, tooshort}
	for i, exp := range expected {
		if got := l.Allow(client); got != exp {
			t.Fatalf("iteration %d: expected %v, but got %v", i, exp, got)
		}
		time.Sleep(waits[i])
	}
}

func TestLimiterWithBurst(t *testing.T) {
	interval := 100 * time.Millisecond
	l := New(10, interval, time.Minute)
	defer l.Stop()

	tooshort := 10 * time.Millisecond
	shortest := 1 * time.Millisecond

	client := "192.0.2.2"

	expected := []bool{true, true, true, true, true, true, true, true, true, true}
	waits := []time.Duration{0, 0, 0, 0, 0, 0, 0, 0, 0, 0}

	expected = append(expected, false, true, true, false, false, false)
	waits = append(waits, interval, interval, tooshort, tooshort, shortest, shortest)

	for i, exp := range expected {
		if got := l.Allow(client); got != exp {
			t.Fatalf("iteration %d: expected %v, but got %v", i, exp, got)
		}
		time.Sleep(waits[i])
	}
}

func TestLimiterSeparateClients(t *testing.T) {
	l := New(1, time.Minute, time.Minute)
	defer l.Stop()

	if !l.Allow("192.0.2.3") {
		t.Fatal("first client should be allowed")
	}
	if l.Allow("192.0.2.3") {
		t.Fatal("first client should be out of budget")
	}
	if !l.Allow("192.0.2.4") {
		t.Fatal("second client has its own budget")
	}
}
