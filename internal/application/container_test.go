package application

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/khanhnv2901/apiprobe/internal/domain/scan"
	"github.com/khanhnv2901/apiprobe/internal/infrastructure/httpclient"
	"github.com/khanhnv2901/apiprobe/internal/probe"
	sharedErrors "github.com/khanhnv2901/apiprobe/internal/shared/errors"
)

func TestNewContainer_RaisesPoolSize(t *testing.T) {
	tests := []struct {
		name       string
		configured int
		want       int
	}{
		{name: "unset", configured: 0, want: probe.DefaultConnConcurrency},
		{name: "too small", configured: 10, want: probe.DefaultConnConcurrency},
		{name: "wider", configured: 80, want: 80},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := NewContainer(Config{
				Target:    "http://127.0.0.1:1/",
				APIPrefix: "/api/v1",
				OutputDir: t.TempDir(),
				HTTP:      httpclient.Config{PoolSize: tt.configured},
				Payloads:  probe.DefaultPayloads(),
			})
			if err != nil {
				t.Fatalf("NewContainer: %v", err)
			}
			defer c.Close()
			if c.PoolSize != tt.want {
				t.Errorf("pool size = %d, want %d", c.PoolSize, tt.want)
			}
			if c.Target != "http://127.0.0.1:1" {
				t.Errorf("target = %s", c.Target)
			}
			if c.Client.BaseURL() != "http://127.0.0.1:1/api/v1" {
				t.Errorf("base url = %s", c.Client.BaseURL())
			}
			if c.Registry.Len() != 12 {
				t.Errorf("registry has %d groups", c.Registry.Len())
			}
		})
	}
}

func TestNewContainer_Errors(t *testing.T) {
	if _, err := NewContainer(Config{Target: "", OutputDir: t.TempDir()}); !errors.Is(err, sharedErrors.ErrEmptyTarget) {
		t.Errorf("expected ErrEmptyTarget, got %v", err)
	}
	if _, err := NewContainer(Config{Target: "ftp://x", OutputDir: t.TempDir()}); !errors.Is(err, sharedErrors.ErrInvalidTarget) {
		t.Errorf("expected ErrInvalidTarget, got %v", err)
	}
	if _, err := NewContainer(Config{Target: "http://x.test", OutputDir: ""}); err == nil {
		t.Error("expected error for empty output directory")
	}
	if _, err := NewContainer(Config{Target: "http://x.test", OutputDir: t.TempDir(), HTTP: httpclient.Config{Retries: -1}}); err == nil {
		t.Error("expected error for negative retries")
	}
}

func TestContainer_ScanAndSave(t *testing.T) {
	// Every endpoint refuses; only the pre-flight needs to succeed for the
	// run to complete and be persisted.
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	c, err := NewContainer(Config{
		Target:    server.URL,
		APIPrefix: "/api/v1",
		OutputDir: t.TempDir(),
		HTTP:      httpclient.Config{Timeout: 2 * time.Second, Backoff: time.Millisecond},
		Payloads:  probe.DefaultPayloads(),
	})
	if err != nil {
		t.Fatalf("NewContainer: %v", err)
	}
	defer c.Close()

	run, err := scan.NewRun(c.Target)
	if err != nil {
		t.Fatal(err)
	}
	a, err := c.Runner.Run(context.Background(), run)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !a.Scored || a.TestsTotal == 0 {
		t.Fatalf("expected a scored run, got %+v", a.Summary)
	}

	path, err := c.ReportRepo.Save(context.Background(), run, a)
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	_, loaded, err := c.ReportRepo.Load(context.Background(), path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.ConfidenceScore != a.ConfidenceScore {
		t.Errorf("reloaded score %.1f, want %.1f", loaded.ConfidenceScore, a.ConfidenceScore)
	}
}
