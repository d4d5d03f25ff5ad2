package page_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/starford/vos/internal/models"
	"github.com/starford/vos/internal/page"
	"github.com/starford/vos/internal/registry"
	"github.com/starford/vos/internal/testutil"
)

func fixture(t *testing.T) (*registry.Registry, []*models.Artifact) {
	t.Helper()
	arts := []*models.Artifact{
		{Name: "Home", Title: "Home", Tags: []string{"nav"}},
		{Name: "Vos", Title: "<i>Vos</i>", Image: "https://cdn/images/vos.png", Tags: []string{"code", "project"},
			LastModified: time.Date(2021, 3, 4, 10, 0, 0, 0, time.UTC)},
		{Name: "Tool", Title: "Tool", Tags: []string{"code"}},
		{Name: "Album", Title: "Album", Tags: []string{"audio", "professional", "project"}},
	}
	reg, errs := registry.New(arts)
	if len(errs) > 0 {
		t.Fatal(errs)
	}
	return reg, arts
}

func assemble(t *testing.T, tmpl string, v page.Variant, a *models.Artifact) string {
	t.Helper()
	reg, _ := fixture(t)
	as := page.New(tmpl, testutil.TestStore(t, testutil.SampleLog), reg, v)
	out, err := as.Assemble(context.Background(), a)
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	return out
}

func TestAssembleBasics(t *testing.T) {
	_, arts := fixture(t)
	vos := arts[1]
	vos.Content = "<p>costs $name dollars</p>"
	got := assemble(t, "$name|$strippedTitle|$title|$lastModified|$image|$noHeader|$content|$logDays|$logHours", page.VariantBundle, vos)
	want := `Vos|Vos|<i>Vos</i>|2021.03.04|https://cdn/images/vos.png||<p>costs $name dollars</p>|3 Days<br>|7 Hours`
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}

func TestAssembleNoImage(t *testing.T) {
	_, arts := fixture(t)
	got := assemble(t, "[$image]$noHeader", page.VariantBundle, arts[2])
	want := `[]<style>#header{height:140px;background-color:var(--default);}</style>`
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestLogDataVariants(t *testing.T) {
	_, arts := fixture(t)
	head := `<div class="sideBox"><span class="sideText">2021.01.02 · 2021.01.05</span>`
	tail := `<span class="sideText">4 hours · 3 logs</span><span class="sideText">3 days · 1.3 hours / day</span></div><div class="sideDivider"></div>`
	bar := func(div, pct, px string) string {
		return `<span class="logStat">` + div + `</span><div class="logBar" style="width: calc(` + pct + `% - ` + px + `px);"></div><br>`
	}
	tests := []struct {
		variant page.Variant
		want    string
	}{
		{page.VariantBundle, head + bar("COD", "50", "15") + bar("VIS", "37.5", "11.25") + bar("ABS", "12.5", "3.75") + tail},
		{page.VariantModule, head + bar("COD", "100", "35") + bar("VIS", "75", "26.25") + bar("ABS", "25", "8.75") + tail},
	}
	for _, tt := range tests {
		t.Run(string(tt.variant), func(t *testing.T) {
			got := assemble(t, "$logData", tt.variant, arts[1])
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestLogDataHidden(t *testing.T) {
	_, arts := fixture(t)
	// Album has logged time but is professional work.
	if got := assemble(t, "$logData", page.VariantBundle, arts[3]); got != "" {
		t.Errorf("professional artifact shows log data: %q", got)
	}
	// Tool has no rows at all.
	if got := assemble(t, "$logData", page.VariantBundle, arts[2]); got != "" {
		t.Errorf("unlogged artifact shows log data: %q", got)
	}
}

func TestLogDataHome(t *testing.T) {
	_, arts := fixture(t)
	got := assemble(t, "$logData", page.VariantBundle, arts[0])
	for _, want := range []string{
		`<span class="sideText">2021.01.02 · 2021.01.05</span>`,
		`<span class="sideText">7 hours · 4 logs</span>`,
		`<span class="logStat">AUD</span>`,
	} {
		if !strings.Contains(got, want) {
			t.Errorf("home log data missing %q in %q", want, got)
		}
	}
}

func TestSector(t *testing.T) {
	_, arts := fixture(t)
	tests := []struct {
		name    string
		a       *models.Artifact
		variant page.Variant
		want    string
	}{
		{"top division", arts[1], page.VariantBundle, "../assets/ui/cod.svg|Tool"},
		{"not a project", arts[2], page.VariantBundle, "../assets/ui/def.svg|"},
		{"professional bundle", arts[3], page.VariantBundle, "../assets/ui/pro.svg|Graphic"},
		{"professional module", arts[3], page.VariantModule, "../assets/ui/pro.svg|Professional"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := assemble(t, "$sectorIcon|$sectorLink", tt.variant, tt.a); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSectorForWriting(t *testing.T) {
	a := &models.Artifact{Tags: []string{"project", "writing"}}
	if got := page.SectorFor(a, page.SectorAbstract); got != page.SectorWriting {
		t.Errorf("SectorFor = %s, want WRI", got)
	}
}

func TestSidebarLists(t *testing.T) {
	_, arts := fixture(t)
	vos := arts[1]
	vos.Links = []models.Link{{Label: "Repo", URL: "https://example.com/vos"}}
	got := assemble(t, "$links\n$related\n$tags", page.VariantBundle, vos)
	want := strings.Join([]string{
		`<a href="https://example.com/vos" class="sideLinkHolder"><span class="neutralLink sideLink">Repo</span></a><div class="sideDivider"></div>`,
		`<span class="sideTitle"><b>Related</b></span><span class="sidebarRelatedTitle sidebarRelatedSame"><i>Vos</i></span><span class="sidebarRelatedTitle">Tool</span><div class="sideDivider"></div>`,
		`<a href="home#Tool" class="sideLinkHolder"><span class="neutralLink sideLink">code</span></a><a href="home#Graphic" class="sideLinkHolder"><span class="neutralLink sideLink">project</span></a><div class="sideDivider"></div>`,
	}, "\n")
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}

func TestStripTags(t *testing.T) {
	if got := page.StripTags(`<b>bold</b> and <a href="x">link`); got != "bold and link" {
		t.Errorf("StripTags = %q", got)
	}
}
