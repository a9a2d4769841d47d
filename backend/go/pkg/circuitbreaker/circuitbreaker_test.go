package circuitbreaker

import (
	"errors"
	"testing"
	"time"

	"OnboardingBuddy/backend/go/internal/config"
)

var errBoom = errors.New("boom")

func fail() (interface{}, error) { return nil, errBoom }
func ok() (interface{}, error)   { return "ok", nil }

func TestBreakerLifecycle(t *testing.T) {
	now := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	var transitions []string
	cb := New(2, 1, 10*time.Second, OnStateChange(func(from, to State) {
		transitions = append(transitions, from.String()+"->"+to.String())
	})).(*breaker)
	cb.now = func() time.Time { return now }

	for i := 0; i < 2; i++ {
		if _, err := cb.Execute(fail); !errors.Is(err, errBoom) {
			t.Fatalf("call %d: err = %v", i, err)
		}
	}
	if cb.State() != Open {
		t.Fatalf("state = %v, want Open", cb.State())
	}

	called := false
	_, err := cb.Execute(func() (interface{}, error) { called = true; return nil, nil })
	if !errors.Is(err, ErrCircuitOpen) || called {
		t.Fatalf("open breaker must reject without calling, err=%v called=%v", err, called)
	}

	now = now.Add(11 * time.Second)
	res, err := cb.Execute(ok)
	if err != nil || res != "ok" {
		t.Fatalf("half-open probe failed: %v %v", res, err)
	}
	if cb.State() != Closed {
		t.Fatalf("state = %v, want Closed", cb.State())
	}

	want := []string{"Closed->Open", "Open->Half-Open", "Half-Open->Closed"}
	if len(transitions) != len(want) {
		t.Fatalf("transitions = %v, want %v", transitions, want)
	}
	for i := range want {
		if transitions[i] != want[i] {
			t.Errorf("transition %d = %s, want %s", i, transitions[i], want[i])
		}
	}
}

func TestSuccessResetsFailureCount(t *testing.T) {
	cb := New(2, 1, time.Minute)
	cb.Execute(fail)
	cb.Execute(ok)
	cb.Execute(fail)
	if cb.State() != Closed {
		t.Errorf("non-consecutive failures must not open the circuit")
	}
}

func TestFromConfig(t *testing.T) {
	if _, err := FromConfig(config.CircuitBreakerConfig{Timeout: "later"}); err == nil {
		t.Error("expected an error for a bad timeout")
	}
	cb, err := FromConfig(config.CircuitBreakerConfig{FailureThreshold: 1, SuccessThreshold: 1, Timeout: "1s"})
	if err != nil {
		t.Fatal(err)
	}
	cb.Execute(fail)
	if cb.State() != Open {
		t.Errorf("state = %v, want Open", cb.State())
	}
}
