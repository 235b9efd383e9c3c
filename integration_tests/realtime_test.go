package integration_tests

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gigglobal/gigs/pkg/browse"
	"github.com/gigglobal/gigs/pkg/devserver"
	"github.com/gigglobal/gigs/pkg/gigapi"
	"github.com/gigglobal/gigs/pkg/paging"
	"github.com/gigglobal/gigs/pkg/query"
	"github.com/gigglobal/gigs/pkg/realtime"
)

// followView opens "i will" in a view that follows cfg's notification
// socket and returns its update stream.
func followView(t *testing.T, svc *testService) <-chan browse.Snapshot {
	t.Helper()
	cfg := writeTestConfig(t, svc)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	hub := realtime.NewHub(64)
	sub, err := realtime.NewSubscriber(cfg.SocketURL, hub, realtime.WithBackoff(50*time.Millisecond, time.Second))
	if err != nil {
		t.Fatal(err)
	}
	go func() { _ = sub.Run(ctx) }()
	waitListeners(t, svc.hub, 1)

	updates := make(chan browse.Snapshot, 32)
	v := browse.NewView("live", newClient(cfg), browse.WithPageSize(cfg.PageSize), browse.WithObserver(func(s browse.Snapshot) {
		updates <- s
	}))
	if _, err := v.Open(ctx, query.Compose(query.RouteSearch, "query=i-will", nil)); err != nil {
		t.Fatal(err)
	}
	go func() { _ = v.Follow(ctx, hub) }()
	waitListeners(t, hub, 1)
	return updates
}

func TestViewRefreshesWhenGigIsCreated(t *testing.T) {
	catalog, err := devserver.NewCatalog(devserver.Generate(25, 1))
	if err != nil {
		t.Fatal(err)
	}
	svc := startService(t, catalog, "")
	updates := followView(t, svc)
	waitFor(t, updates, func(s browse.Snapshot) bool { return s.State.TotalCount == 25 })

	body, _ := json.Marshal(gigapi.Gig{Title: "I will test your app", Price: 30, Active: true})
	res, err := http.Post(svc.url+"/api/v1/gig", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	res.Body.Close()

	s := waitFor(t, updates, func(s browse.Snapshot) bool { return s.State.TotalCount == 26 })
	if s.State.PageIndex != 1 || s.Status != paging.Loaded {
		t.Errorf("unexpected state after refresh: %+v %v", s.State, s.Status)
	}
}

func TestViewRefreshesWhenCatalogFileChanges(t *testing.T) {
	gigs := devserver.Generate(25, 2)
	path := filepath.Join(t.TempDir(), "catalog.json")
	writeGigs(t, path, gigs)

	catalog, err := devserver.LoadCatalog(path)
	if err != nil {
		t.Fatal(err)
	}
	svc := startService(t, catalog, path)
	updates := followView(t, svc)
	waitFor(t, updates, func(s browse.Snapshot) bool { return s.State.TotalCount == 25 })

	// Let the catalog watcher settle before rewriting the file.
	time.Sleep(200 * time.Millisecond)
	writeGigs(t, path, gigs[:20])

	waitFor(t, updates, func(s browse.Snapshot) bool { return s.State.TotalCount == 20 })
}

func writeGigs(t *testing.T, path string, gigs []gigapi.Gig) {
	t.Helper()
	data, err := json.Marshal(gigs)
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
}
