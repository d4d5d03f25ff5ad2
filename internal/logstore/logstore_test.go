package logstore_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/starford/vos/internal/apperr"
	"github.com/starford/vos/internal/logstore"
	"github.com/starford/vos/internal/models"
	"github.com/starford/vos/internal/testutil"
)

func TestParseLine(t *testing.T) {
	tests := []struct {
		line string
		want models.LogEntry
	}{
		{
			line: `2021-01-02, 2 ,Vos,Parser,Code,plain`,
			want: models.LogEntry{Date: "2021-01-02", Time: "2", Project: "Vos", Task: "Parser", Division: "Code", Details: "plain"},
		},
		{
			line: `2021-01-02,2,Vos,Parser,Code,"a, b, c"`,
			want: models.LogEntry{Date: "2021-01-02", Time: "2", Project: "Vos", Task: "Parser", Division: "Code", Details: "a,b,c"},
		},
		{
			line: `2021-01-02,2,Vos`,
			want: models.LogEntry{Date: "2021-01-02", Time: "2", Project: "Vos"},
		},
	}
	for _, tt := range tests {
		got := logstore.ParseLine(tt.line)
		if diff := cmp.Diff(tt.want, got); diff != "" {
			t.Errorf("ParseLine(%q) mismatch (-want +got):\n%s", tt.line, diff)
		}
	}
}

func TestAggregatesSkipHeader(t *testing.T) {
	db := testutil.TestStore(t, testutil.SampleLog)
	ctx := context.Background()

	n, err := db.Count(ctx, logstore.Filter{})
	if err != nil {
		t.Fatal(err)
	}
	if n != 4 {
		t.Errorf("Count = %d, want 4", n)
	}

	rows, err := db.Rows(ctx, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 2 || rows[0].Date != "Date" {
		t.Errorf("Rows(2) should start with the header row, got %+v", rows)
	}
}

func TestProjectAggregates(t *testing.T) {
	db := testutil.TestStore(t, testutil.SampleLog)
	ctx := context.Background()
	f := logstore.Filter{Project: "VOS"}

	count, _ := db.Count(ctx, f)
	hours, _ := db.Hours(ctx, f)
	days, _ := db.Days(ctx, f)
	first, last, err := db.DateRange(ctx, f)
	if err != nil {
		t.Fatal(err)
	}
	if count != 3 || hours != 4 || days != 3 {
		t.Errorf("count/hours/days = %d/%v/%d, want 3/4/3", count, hours, days)
	}
	if first != "2021-01-02" || last != "2021-01-05" {
		t.Errorf("range = %s..%s", first, last)
	}

	audio, _ := db.Hours(ctx, logstore.Filter{Division: models.DivisionAudio})
	if audio != 3 {
		t.Errorf("audio hours = %v, want 3", audio)
	}
}

func TestDateRangeMiss(t *testing.T) {
	db := testutil.TestStore(t, testutil.SampleLog)
	_, _, err := db.DateRange(context.Background(), logstore.Filter{Project: "nothing"})
	if !errors.Is(err, apperr.ErrAggregationMiss) {
		t.Fatalf("expected ErrAggregationMiss, got %v", err)
	}
	hours, err := db.Hours(context.Background(), logstore.Filter{Project: "nothing"})
	if err != nil || hours != 0 {
		t.Errorf("Hours on empty match = %v, %v; want 0, nil", hours, err)
	}
}

func TestDivisions(t *testing.T) {
	db := testutil.TestStore(t, testutil.SampleLog)
	got, err := db.Divisions(context.Background(), "vos")
	if err != nil {
		t.Fatal(err)
	}
	want := []logstore.DivisionTotal{
		{Division: models.DivisionAbstract, Hours: 0.5, Present: true},
		{Division: models.DivisionAudio},
		{Division: models.DivisionCode, Hours: 2, Present: true},
		{Division: models.DivisionVisual, Hours: 1.5, Present: true},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Divisions mismatch (-want +got):\n%s", diff)
	}
}

func TestHasProject(t *testing.T) {
	db := testutil.TestStore(t, testutil.SampleLog)
	ctx := context.Background()
	if ok, _ := db.HasProject(ctx, "album"); !ok {
		t.Error("expected album to be logged")
	}
	// The header row names a "Project" column but is not data.
	if ok, _ := db.HasProject(ctx, "Project"); ok {
		t.Error("header row leaked into HasProject")
	}
}

func TestLoadSkipsBlankLines(t *testing.T) {
	db, err := logstore.Open(logstore.MemoryDSN, 0)
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()
	n, err := db.Load(context.Background(), strings.NewReader("a,1,p,t,Code,x\r\n\n\nb,2,p,t,Code,y\n"))
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Errorf("loaded %d rows, want 2", n)
	}
}
