package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/starford/vos/internal/markup"
	"github.com/starford/vos/internal/page"
	"github.com/starford/vos/internal/site"
	"github.com/starford/vos/internal/storage"
)

// Media is the media layout used by test builds.
var Media = markup.MediaDirs{Files: "https://cdn/files/", Images: "https://cdn/images/"}

// SiteTree returns a small source tree: a template, SampleLog and three
// artifacts, two of them tagged x.
func SiteTree() map[string]string {
	return map[string]string{
		"page.html":       `<html><body><main>$content</main></body></html>`,
		"log.csv":         SampleLog,
		"artifacts/a.txt": "name: Alpha\ntitle: **Alpha**\ntags: x\n===\nSee &[Beta].",
		"artifacts/b.txt": "name: Beta\ntitle: Beta\nimage: beta.png\ntags: x\n===\n=[x]",
		"artifacts/c.txt": "name: Gamma\ntitle: Gamma\n===\nplain",
	}
}

// WriteTree lays out files under a temporary directory and returns its root.
func WriteTree(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for name, body := range files {
		p := filepath.Join(root, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, []byte(body), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return root
}

// TestBuilder creates a builder over files writing to a fresh output
// directory, returned alongside it. The builder is closed on cleanup.
func TestBuilder(t *testing.T, files map[string]string) (*site.Builder, string) {
	t.Helper()
	src, err := storage.NewFS(WriteTree(t, files), false)
	if err != nil {
		t.Fatal(err)
	}
	outDir, out := TestSite(t)
	b := site.NewBuilder(site.Config{
		ArtifactDir:  "artifacts",
		TemplatePath: "page.html",
		LogPath:      "log.csv",
		Workers:      2,
		Variant:      page.VariantBundle,
		HeaderRows:   1,
		Media:        Media,
	}, src, out, nil, nil)
	t.Cleanup(func() { b.Close() })
	return b, outDir
}
