package enrichment

import (
	"context"
	"testing"
	"time"

	"github.com/R3E-Network/data_harmony/internal/app/storage/memory"
)

func TestNewSchedulerRejectsBadSpec(t *testing.T) {
	if _, err := NewScheduler(NewLoader(StaticSource{}, memory.New(), nil), "every now and then", nil); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestSchedulerRunsLoads(t *testing.T) {
	stores := memory.New()
	loader := NewLoader(sampleSource(), stores, nil)
	sched, err := NewScheduler(loader, "@every 1s", nil)
	if err != nil {
		t.Fatalf("new scheduler: %v", err)
	}
	if sched.Name() != "load-scheduler" {
		t.Fatalf("name = %s", sched.Name())
	}

	ctx := context.Background()
	if err := sched.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := sched.Start(ctx); err != nil {
		t.Fatalf("second start should be a no-op: %v", err)
	}

	deadline := time.Now().Add(5 * time.Second)
	for {
		n, err := stores.Users.Count(ctx)
		if err != nil {
			t.Fatalf("count: %v", err)
		}
		if n == 2 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("scheduled load did not run")
		}
		time.Sleep(50 * time.Millisecond)
	}

	stopCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := sched.Stop(stopCtx); err != nil {
		t.Fatalf("stop: %v", err)
	}
	if err := sched.Stop(stopCtx); err != nil {
		t.Fatalf("second stop should be a no-op: %v", err)
	}
}
