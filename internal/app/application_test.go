package app

import (
	"context"
	"testing"
	"time"
)

func TestApplicationLifecycle(t *testing.T) {
	application, err := New(Stores{}, Options{
		StaticPrice:  50,
		StaticYield:  4.3,
		PollInterval: 30 * time.Second,
	}, nil)
	if err != nil {
		t.Fatalf("new application: %v", err)
	}

	if err := application.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}

	// The poller records its first observation immediately.
	deadline := time.Now().Add(3 * time.Second)
	for {
		count, err := application.Recorder.Count(context.Background())
		if err != nil {
			t.Fatalf("count: %v", err)
		}
		if count >= 1 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("expected an observation after start")
		}
		time.Sleep(10 * time.Millisecond)
	}

	stopCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := application.Stop(stopCtx); err != nil {
		t.Fatalf("stop: %v", err)
	}
}

func TestApplicationOfflineHistory(t *testing.T) {
	application, err := New(Stores{}, Options{StaticPrice: 50, StaticYield: 4.3}, nil)
	if err != nil {
		t.Fatalf("new application: %v", err)
	}

	if err := application.History.Rebuild(context.Background()); err != nil {
		t.Fatalf("rebuild: %v", err)
	}
	points, err := application.History.List(context.Background())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(points) == 0 {
		t.Fatal("expected synthetic history points")
	}
}

func TestApplicationRejectsUnknownSource(t *testing.T) {
	if _, err := New(Stores{}, Options{QuoteSource: "carrier-pigeon"}, nil); err == nil {
		t.Fatal("expected error for unknown quote source")
	}
}

func TestApplicationManualSourceNeedsURL(t *testing.T) {
	if _, err := New(Stores{}, Options{QuoteSource: "manual_url"}, nil); err == nil {
		t.Fatal("expected error when manual source has no url")
	}
}
