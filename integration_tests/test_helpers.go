package integration_tests

import (
	"context"
	"net"
	"path/filepath"
	"testing"
	"time"

	"github.com/gigglobal/gigs/pkg/browse"
	"github.com/gigglobal/gigs/pkg/config"
	"github.com/gigglobal/gigs/pkg/devserver"
	"github.com/gigglobal/gigs/pkg/gigapi"
	"github.com/gigglobal/gigs/pkg/realtime"
)

// testService is a dev search service listening on a random local port.
type testService struct {
	srv *devserver.Server
	hub *realtime.Hub
	url string
}

// startService serves catalog until the test ends. When catalogPath is set
// the catalog file is watched for changes.
func startService(t *testing.T, catalog *devserver.Catalog, catalogPath string) *testService {
	t.Helper()
	hub := realtime.NewHub(64)
	srv := devserver.NewServer(catalog, hub)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx, ln) }()
	if catalogPath != "" {
		go func() { _ = srv.Watch(ctx, catalogPath) }()
	}
	t.Cleanup(func() {
		cancel()
		if err := <-done; err != nil {
			t.Errorf("serve: %v", err)
		}
	})

	return &testService{srv: srv, hub: hub, url: "http://" + ln.Addr().String()}
}

// writeTestConfig saves a configuration targeting svc and loads it back the
// way the CLI does.
func writeTestConfig(t *testing.T, svc *testService) *config.Config {
	t.Helper()
	dir := t.TempDir()
	cfg, err := config.GetDefaultConfig()
	if err != nil {
		t.Fatal(err)
	}
	cfg.APIURL = svc.url
	cfg.SocketURL = "ws" + svc.url[len("http"):] + devserver.NotificationsPath
	cfg.StateDir = filepath.Join(dir, "state")

	path := filepath.Join(dir, "config.toml")
	if err := cfg.SaveConfig(path); err != nil {
		t.Fatalf("saving config: %v", err)
	}
	loaded, err := config.LoadConfig(path)
	if err != nil {
		t.Fatalf("loading config: %v", err)
	}
	return loaded
}

func newClient(cfg *config.Config) *gigapi.Client {
	return gigapi.New(cfg.APIURL, gigapi.WithTimeout(cfg.Timeout.Duration), gigapi.WithRateLimit(cfg.RateLimit, cfg.RateBurst))
}

// waitFor reads snapshots until ok accepts one.
func waitFor(t *testing.T, updates <-chan browse.Snapshot, ok func(browse.Snapshot) bool) browse.Snapshot {
	t.Helper()
	timeout := time.After(10 * time.Second)
	for {
		select {
		case s := <-updates:
			if ok(s) {
				return s
			}
		case <-timeout:
			t.Fatal("timed out waiting for view update")
			return browse.Snapshot{}
		}
	}
}

// waitListeners blocks until hub has n listeners.
func waitListeners(t *testing.T, hub *realtime.Hub, n int) {
	t.Helper()
	deadline := time.Now().Add(10 * time.Second)
	for hub.Size() < n {
		if time.Now().After(deadline) {
			t.Fatalf("hub has %d listeners, want %d", hub.Size(), n)
		}
		time.Sleep(10 * time.Millisecond)
	}
}
