package services

import (
	"context"
	"testing"
	"time"

	"etiket/internal/amqp"
	"etiket/internal/history"
	"etiket/internal/history/memory"
	sheetsmem "etiket/internal/sheets/memory"
)

func TestDefaultReconcilerConfig(t *testing.T) {
	config := DefaultReconcilerConfig()

	if config.PollInterval != 5*time.Minute {
		t.Errorf("expected PollInterval 5m, got %v", config.PollInterval)
	}
	if config.BatchSize != 20 {
		t.Errorf("expected BatchSize 20, got %d", config.BatchSize)
	}
}

func TestMirrorReconciler_AppendsOnlyMissing(t *testing.T) {
	ctx := context.Background()
	kv := memory.New()
	writer := history.Open(ctx, kv, "", nil)
	for _, id := range []string{"20240305-001", "20240305-002", "20240305-003"} {
		if err := writer.AppendAndSave(ctx, entry(id)); err != nil {
			t.Fatalf("AppendAndSave: %v", err)
		}
	}

	mirror := sheetsmem.New()
	// The second label already made it through the broker.
	known := writer.Load(ctx)[1]
	if _, err := mirror.AppendLabel(ctx, amqp.EventIDFor(known), known); err != nil {
		t.Fatalf("seed mirror: %v", err)
	}

	r := NewMirrorReconciler(history.Open(ctx, kv, "", nil), mirror, DefaultReconcilerConfig())
	appended, err := r.ReconcileOnce(ctx)
	if err != nil {
		t.Fatalf("ReconcileOnce: %v", err)
	}
	if appended != 2 {
		t.Fatalf("expected 2 appended rows, got %d", appended)
	}

	labels, _ := mirror.ListLabels(ctx)
	if len(labels) != 3 {
		t.Fatalf("expected 3 mirrored labels, got %d", len(labels))
	}
	if labels[1].LabelIdentifier != "20240305-001" || labels[2].LabelIdentifier != "20240305-003" {
		t.Fatalf("missing labels should be appended oldest first: %+v", labels)
	}

	again, err := r.ReconcileOnce(ctx)
	if err != nil || again != 0 {
		t.Fatalf("second pass should be a no-op, got %d, %v", again, err)
	}
}

func TestMirrorReconciler_BatchSize(t *testing.T) {
	ctx := context.Background()
	kv := memory.New()
	writer := history.Open(ctx, kv, "", nil)
	for _, id := range []string{"a-001", "a-002", "a-003"} {
		_ = writer.AppendAndSave(ctx, entry(id))
	}

	mirror := sheetsmem.New()
	r := NewMirrorReconciler(writer, mirror, ReconcilerConfig{PollInterval: time.Minute, BatchSize: 1})
	appended, err := r.ReconcileOnce(ctx)
	if err != nil || appended != 1 {
		t.Fatalf("expected only the newest entry, got %d, %v", appended, err)
	}
	labels, _ := mirror.ListLabels(ctx)
	if labels[0].LabelIdentifier != "a-003" {
		t.Fatalf("expected newest entry, got %+v", labels)
	}
}

func TestMirrorReconciler_StartStop(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	r := NewMirrorReconciler(history.Open(ctx, memory.New(), "", nil), sheetsmem.New(), ReconcilerConfig{PollInterval: 10 * time.Millisecond})
	if r.IsRunning() {
		t.Fatal("reconciler should not be running initially")
	}
	if err := r.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := r.Start(ctx); err == nil {
		t.Fatal("expected error when starting twice")
	}

	stopCtx, stopCancel := context.WithTimeout(context.Background(), time.Second)
	defer stopCancel()
	if err := r.Stop(stopCtx); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if r.IsRunning() {
		t.Fatal("reconciler should be stopped")
	}
	if err := r.Stop(stopCtx); err != nil {
		t.Fatalf("second Stop should be a no-op: %v", err)
	}
}
