// Package testutil provides shared test helpers for setting up site trees and log stores.
package testutil

import (
	"context"
	"strings"
	"testing"

	"github.com/starford/vos/internal/logstore"
	"github.com/starford/vos/internal/storage"
)

// SampleLog is a small productivity log with a header row.
const SampleLog = `Date,Time,Project,Task,Division,Details
2021-01-02,2,Vos,Parser,Code,"first pass, rules"
2021-01-03,1.5,Vos,Styles,Visual,colours
2021-01-03,3,Album,Mixing,Audio,"track 1, track 2"
2021-01-05,0.5,vos,Notes,Abstract,ideas
`

// TestStore creates an in-memory log store loaded with csv and closed on cleanup.
func TestStore(t *testing.T, csv string) *logstore.DB {
	t.Helper()
	db, err := logstore.Open(logstore.MemoryDSN, 1)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	if _, err := db.Load(context.Background(), strings.NewReader(csv)); err != nil {
		t.Fatal(err)
	}
	return db
}

// TestSite creates a temporary site directory with a storage.Provider.
func TestSite(t *testing.T) (string, storage.Provider) {
	t.Helper()
	dir := t.TempDir()
	store, err := storage.NewFS(dir, true)
	if err != nil {
		t.Fatal(err)
	}
	return dir, store
}
