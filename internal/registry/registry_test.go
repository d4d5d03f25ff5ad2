package registry

import (
	"errors"
	"testing"
	"time"

	"github.com/starford/vos/internal/apperr"
	"github.com/starford/vos/internal/models"
)

var base = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func art(name string, hours int, tags ...string) *models.Artifact {
	if tags == nil {
		tags = []string{}
	}
	return &models.Artifact{
		Name:         name,
		Title:        "<i>" + name + "</i>",
		Tags:         tags,
		Source:       name + ".txt",
		LastModified: base.Add(time.Duration(hours) * time.Hour),
	}
}

func names(as []*models.Artifact) []string {
	out := make([]string, len(as))
	for i, a := range as {
		out[i] = a.Name
	}
	return out
}

func equal(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestWithTag_RegistryOrder(t *testing.T) {
	r, errs := New([]*models.Artifact{
		art("A", 0, "x", "y"),
		art("B", 0, "y"),
		art("C", 0, "z"),
	})
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if got := names(r.WithTag("y")); !equal(got, []string{"A", "B"}) {
		t.Errorf("WithTag(y) = %v", got)
	}
	if got := names(r.WithTag("missing")); len(got) != 0 {
		t.Errorf("WithTag(missing) = %v", got)
	}
}

func TestLookup_CaseInsensitive(t *testing.T) {
	r, _ := New([]*models.Artifact{art("Home", 0)})
	if _, ok := r.Lookup("HOME"); !ok {
		t.Error("lookup should ignore case")
	}
	if _, ok := r.Lookup("away"); ok {
		t.Error("unexpected hit")
	}
}

func TestWithout(t *testing.T) {
	r, _ := New([]*models.Artifact{art("A", 0, "x"), art("B", 1, "x"), art("C", 2, "x")})
	w := r.Without("b")
	if got := names(w.All()); !equal(got, []string{"A", "C"}) {
		t.Errorf("Without = %v", got)
	}
	if _, ok := w.Lookup("B"); ok {
		t.Error("dropped artifact still resolvable")
	}
	if got := names(w.WithTag("x")); !equal(got, []string{"A", "C"}) {
		t.Errorf("WithTag after Without = %v", got)
	}
	if r.Len() != 3 {
		t.Errorf("original registry changed: len = %d", r.Len())
	}
}

func TestNew_RejectsDuplicates(t *testing.T) {
	r, errs := New([]*models.Artifact{art("Home", 0), art("home", 1)})
	if r.Len() != 1 {
		t.Fatalf("len = %d, want 1", r.Len())
	}
	if len(errs) != 1 || !errors.Is(errs[0], apperr.ErrDuplicateName) {
		t.Fatalf("errs = %v", errs)
	}
	a, _ := r.Lookup("home")
	if a.Name != "Home" {
		t.Errorf("first definition should win, got %q", a.Name)
	}
}

func TestNew_SnapshotIsolated(t *testing.T) {
	src := art("A", 0, "x")
	r, _ := New([]*models.Artifact{src})
	src.Title = "changed"
	src.Tags[0] = "changed"
	a, _ := r.Lookup("a")
	if a.Title == "changed" || a.Tags[0] == "changed" {
		t.Error("registry must not alias its inputs")
	}
}

func TestRecentlyUpdated(t *testing.T) {
	r, _ := New([]*models.Artifact{
		art("t1", 1),
		art("t2", 2),
		art("t3", 3),
		art("menu", 9, "nav"),
		art("scratch", 8, "debug"),
	})
	got := names(r.RecentlyUpdated(2, "nav", "debug"))
	if !equal(got, []string{"t3", "t2"}) {
		t.Errorf("RecentlyUpdated = %v", got)
	}
	if got := r.RecentlyUpdated(0); got != nil {
		t.Errorf("n=0 should be empty, got %v", names(got))
	}
	if got := r.RecentlyUpdated(50, "nav", "debug"); len(got) != 3 {
		t.Errorf("n beyond size = %v", names(got))
	}
}

func TestRecentlyUpdated_TiesKeepRegistryOrder(t *testing.T) {
	r, _ := New([]*models.Artifact{art("b", 5), art("a", 5), art("c", 5)})
	if got := names(r.RecentlyUpdated(3)); !equal(got, []string{"b", "a", "c"}) {
		t.Errorf("ties reordered: %v", got)
	}
}

func TestRelated(t *testing.T) {
	self := art("self", 0, "music", "project")
	r, _ := New([]*models.Artifact{
		art("other", 0, "music"),
		self,
		art("sameproject", 0, "project"),
		art("unrelated", 0, "code"),
	})
	s, _ := r.Lookup("self")
	if got := names(r.Related(s)); !equal(got, []string{"other", "self"}) {
		t.Errorf("Related = %v", got)
	}
}
