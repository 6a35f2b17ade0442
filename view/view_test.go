package view

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
)

func writeAsset(t *testing.T, dir, body string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, "static", "app.css"), []byte(body), 0o644); err != nil {
		t.Fatalf("write asset: %v", err)
	}
}

func resetAssets(t *testing.T, dev bool) string {
	t.Helper()
	dir := t.TempDir()
	if err := os.Mkdir(filepath.Join(dir, "static"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	t.Chdir(dir)
	SetDev(dev)
	assetVersions.Lock()
	assetVersions.m = map[string]string{}
	assetVersions.Unlock()
	t.Cleanup(func() { SetDev(false) })
	return dir
}

func TestAssetURL_CachesOutsideDev(t *testing.T) {
	dir := resetAssets(t, false)
	writeAsset(t, dir, "body{}")

	first := assetURL("app.css")
	if !strings.HasPrefix(first, "/static/app.css?v=") {
		t.Fatalf("assetURL = %q", first)
	}
	writeAsset(t, dir, "body{color:red}")
	if got := assetURL("app.css"); got != first {
		t.Errorf("cached version changed: %q then %q", first, got)
	}
}

func TestAssetURL_RehashesInDev(t *testing.T) {
	dir := resetAssets(t, true)
	writeAsset(t, dir, "body{}")
	first := assetURL("app.css")
	writeAsset(t, dir, "body{color:red}")
	if got := assetURL("app.css"); got == first {
		t.Errorf("dev mode kept a stale version %q", got)
	}
}

func TestAssetURL_MissingAndExternal(t *testing.T) {
	resetAssets(t, false)
	if got := assetURL("missing.js"); got != "/static/missing.js" {
		t.Errorf("missing asset = %q", got)
	}
	if got := assetURL("https://cdn.test/x.css"); got != "https://cdn.test/x.css" {
		t.Errorf("external asset = %q", got)
	}
}

// Run with -race: concurrent renders share the version cache.
func TestAssetURL_Concurrent(t *testing.T) {
	dir := resetAssets(t, false)
	writeAsset(t, dir, "body{}")
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				_ = assetURL("app.css")
			}
		}()
	}
	wg.Wait()
}
