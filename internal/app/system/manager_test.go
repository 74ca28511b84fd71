package system

import (
	"context"
	"errors"
	"testing"
)

type recordingService struct {
	name     string
	log      *[]string
	startErr error
}

func (s recordingService) Name() string { return s.name }

func (s recordingService) Start(context.Context) error {
	*s.log = append(*s.log, "start "+s.name)
	return s.startErr
}

func (s recordingService) Stop(context.Context) error {
	*s.log = append(*s.log, "stop "+s.name)
	return nil
}

func TestManagerOrder(t *testing.T) {
	var log []string
	m := NewManager()
	for _, name := range []string{"a", "b"} {
		if err := m.Register(recordingService{name: name, log: &log}); err != nil {
			t.Fatalf("register %s: %v", name, err)
		}
	}
	if err := m.Register(recordingService{name: "a", log: &log}); err == nil {
		t.Fatal("expected duplicate name error")
	}

	ctx := context.Background()
	if err := m.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := m.Stop(ctx); err != nil {
		t.Fatalf("stop: %v", err)
	}

	want := []string{"start a", "start b", "stop b", "stop a"}
	if len(log) != len(want) {
		t.Fatalf("log = %v, want %v", log, want)
	}
	for i := range want {
		if log[i] != want[i] {
			t.Fatalf("log = %v, want %v", log, want)
		}
	}
}

func TestManagerStartFailureStopsStarted(t *testing.T) {
	var log []string
	m := NewManager()
	_ = m.Register(recordingService{name: "a", log: &log})
	_ = m.Register(recordingService{name: "b", log: &log, startErr: errors.New("boom")})

	if err := m.Start(context.Background()); err == nil {
		t.Fatal("expected start error")
	}
	want := []string{"start a", "start b", "stop a"}
	if len(log) != len(want) || log[2] != "stop a" {
		t.Fatalf("log = %v, want %v", log, want)
	}
}
