package progress

import (
	"strings"
	"sync"
	"testing"
	"time"
)

func TestLogAppendsAndRenders(t *testing.T) {
	log := New()
	log.now = func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) }

	log.Info("scanning %d items", 4)
	log.Success("converted 200.bif")
	log.Error("parse failed: %v", "short read")

	lines := log.Lines()
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %d", len(lines))
	}
	if lines[0].Severity != SeverityInfo || lines[1].Severity != SeveritySuccess || lines[2].Severity != SeverityError {
		t.Fatalf("unexpected severities: %+v", lines)
	}

	text := log.Render()
	for _, want := range []string{"INFO scanning 4 items", "SUCCESS converted 200.bif", "ERROR parse failed: short read"} {
		if !strings.Contains(text, want) {
			t.Fatalf("rendered text missing %q:\n%s", want, text)
		}
	}
}

func TestClearResetsBuffer(t *testing.T) {
	log := New()
	log.Info("old run")
	log.Clear()
	if len(log.Lines()) != 0 {
		t.Fatal("expected empty buffer after Clear")
	}
	if log.Render() != "" {
		t.Fatal("expected empty render after Clear")
	}
}

func TestConcurrentAppendAndRead(t *testing.T) {
	log := New()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				log.Info("line %d", j)
				_ = log.Render()
			}
		}()
	}
	wg.Wait()
	if got := len(log.Lines()); got != 800 {
		t.Fatalf("expected 800 lines, got %d", got)
	}
}

func TestLinesReturnsCopy(t *testing.T) {
	log := New()
	log.Info("one")
	snapshot := log.Lines()
	snapshot[0].Message = "mutated"
	if log.Lines()[0].Message != "one" {
		t.Fatal("reader mutation leaked into the buffer")
	}
}
