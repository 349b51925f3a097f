package usecases_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/samirrijal/walkies/internal/core/domain"
	"github.com/samirrijal/walkies/internal/core/usecases"
)

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

func TestNavigation_FirstFixTimeout(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	nav := usecases.NewNavigationService(f.svc, 20*time.Millisecond)
	id := f.session(t)

	if err := nav.Start(ctx, id); err != nil {
		t.Fatalf("start: %v", err)
	}
	v, _ := f.svc.Get(ctx, id)
	if !v.Navigating {
		t.Fatal("expected navigating after start")
	}

	waitFor(t, func() bool { return !nav.Active(id) })

	v, _ = f.svc.Get(ctx, id)
	if v.Navigating {
		t.Error("navigation should stop on timeout")
	}
	if v.Notice == nil || v.Notice.Message != domain.MsgLocationFailed {
		t.Errorf("expected timeout notice, got %+v", v.Notice)
	}
	if len(f.publisher.ofType(usecases.EventNotice)) == 0 {
		t.Error("timeout notice not published")
	}
}

func TestNavigation_FixCancelsTimeout(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	nav := usecases.NewNavigationService(f.svc, 30*time.Millisecond)
	id := f.session(t)

	_ = nav.Start(ctx, id)
	if err := nav.ReportPosition(ctx, id, peckham); err != nil {
		t.Fatalf("report position: %v", err)
	}
	time.Sleep(60 * time.Millisecond)

	if !nav.Active(id) {
		t.Fatal("watch should stay open after the first fix")
	}
	v, _ := f.svc.Get(ctx, id)
	if v.Location == nil || *v.Location != peckham || v.LocationSource != domain.SourceDevice {
		t.Errorf("unexpected location %+v from %s", v.Location, v.LocationSource)
	}
	if v.Notice != nil {
		t.Errorf("unexpected notice %+v", v.Notice)
	}

	if err := nav.ReportPosition(ctx, id, dulwich); err != nil {
		t.Fatalf("second fix: %v", err)
	}
	v, _ = f.svc.Get(ctx, id)
	if *v.Location != dulwich {
		t.Errorf("position not followed: %+v", v.Location)
	}
}

func TestNavigation_ReportWithoutWatch(t *testing.T) {
	f := newFixture()
	nav := usecases.NewNavigationService(f.svc, time.Second)
	id := f.session(t)

	err := nav.ReportPosition(context.Background(), id, peckham)
	if !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected not found, got %v", err)
	}
}

func TestNavigation_Stop(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	nav := usecases.NewNavigationService(f.svc, time.Second)
	id := f.session(t)

	_ = nav.Start(ctx, id)
	if err := nav.Stop(ctx, id); err != nil {
		t.Fatalf("stop: %v", err)
	}
	if nav.Active(id) {
		t.Error("watch still active after stop")
	}
	v, _ := f.svc.Get(ctx, id)
	if v.Navigating {
		t.Error("still navigating after stop")
	}
}

func TestNavigation_ReleasedWithSession(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	nav := usecases.NewNavigationService(f.svc, time.Second)

	unmounted := f.session(t)
	_, _ = f.svc.MountMap(ctx, unmounted)
	_ = nav.Start(ctx, unmounted)
	if _, err := f.svc.UnmountMap(ctx, unmounted); err != nil {
		t.Fatalf("unmount: %v", err)
	}
	if nav.Active(unmounted) {
		t.Error("watch should be released on unmount")
	}
	v, _ := f.svc.Get(ctx, unmounted)
	if v.Navigating {
		t.Error("navigation flag left set after unmount")
	}

	deleted := f.session(t)
	_ = nav.Start(ctx, deleted)
	_ = f.svc.Delete(ctx, deleted)
	if nav.Active(deleted) {
		t.Error("watch should be released on delete")
	}
}

func TestNavigation_Restart(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	nav := usecases.NewNavigationService(f.svc, 40*time.Millisecond)
	id := f.session(t)

	_ = nav.Start(ctx, id)
	time.Sleep(25 * time.Millisecond)
	_ = nav.Start(ctx, id)
	time.Sleep(25 * time.Millisecond)

	if !nav.Active(id) {
		t.Error("restarted watch should not be expired by the old timer")
	}
	nav.Close()
	if nav.Active(id) {
		t.Error("close should release every watch")
	}
}
