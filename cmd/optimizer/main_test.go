package main

import (
	"context"
	"errors"
	"testing"

	"github.com/fd1az/defi-optimizer/internal/di"
	"github.com/fd1az/defi-optimizer/internal/monolith"
	"github.com/fd1az/defi-optimizer/pkg/ui"
)

type fakeModule struct{ err error }

func (f *fakeModule) RegisterServices(di.Container) error { return nil }

func (f *fakeModule) Startup(context.Context, monolith.Monolith) error { return f.err }

type fakeStarter struct{ started int }

func (s *fakeStarter) StartModules(ctx context.Context, mods ...monolith.Module) error {
	for _, m := range mods {
		if err := m.Startup(ctx, nil); err != nil {
			return err
		}
		s.started++
	}
	return nil
}

func TestStartModules_ReportsProgress(t *testing.T) {
	starter := &fakeStarter{}
	var steps []string
	notify := func(step, status, _ string) { steps = append(steps, step+":"+status) }

	mods := []namedModule{{"chain", &fakeModule{}}, {"market", &fakeModule{}}}
	if err := startModules(context.Background(), starter, mods, notify); err != nil {
		t.Fatalf("startModules: %v", err)
	}

	want := []string{
		"chain:" + ui.StepConnecting, "chain:" + ui.StepDone,
		"market:" + ui.StepConnecting, "market:" + ui.StepDone,
	}
	if len(steps) != len(want) {
		t.Fatalf("expected %v, got %v", want, steps)
	}
	for i := range want {
		if steps[i] != want[i] {
			t.Errorf("step %d: expected %s, got %s", i, want[i], steps[i])
		}
	}
}

func TestStartModules_StopsOnFailure(t *testing.T) {
	starter := &fakeStarter{}
	var last string
	notify := func(step, status, _ string) { last = step + ":" + status }

	mods := []namedModule{
		{"chain", &fakeModule{err: errors.New("rpc down")}},
		{"market", &fakeModule{}},
	}
	if err := startModules(context.Background(), starter, mods, notify); err == nil {
		t.Fatal("expected an error")
	}
	if last != "chain:"+ui.StepFailed {
		t.Errorf("expected chain failure to be reported, got %s", last)
	}
	if starter.started != 0 {
		t.Errorf("expected no module started, got %d", starter.started)
	}
}

func TestStartModules_NilNotifier(t *testing.T) {
	if err := startModules(context.Background(), &fakeStarter{}, []namedModule{{"wallet", &fakeModule{}}}, nil); err != nil {
		t.Fatalf("startModules: %v", err)
	}
}
