// Package page fills the HTML page template with a resolved artifact and
// its sidebar: log statistics, sector, links, related pages and tags.
package page

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/starford/vos/internal/logstore"
	"github.com/starford/vos/internal/models"
	"github.com/starford/vos/internal/registry"
)

// Variant selects between the two historical sidebar renderings.
type Variant string

const (
	// VariantBundle sizes log bars against total hours and links the
	// professional sector to the graphic category.
	VariantBundle Variant = "bundle"
	// VariantModule sizes log bars against the top division and links the
	// professional sector to its own category.
	VariantModule Variant = "module"
)

// Valid reports whether v names a known variant.
func (v Variant) Valid() bool { return v == VariantBundle || v == VariantModule }

// noHeaderStyle collapses the header when an artifact has no image.
const noHeaderStyle = `<style>#header{height:140px;background-color:var(--default);}</style>`

const sideDivider = `<div class="sideDivider"></div>`

var tagStripRe = regexp.MustCompile(`</?[^>]+(>|$)`)

// Assembler renders finished artifacts into the page template.
type Assembler struct {
	template string
	store    logstore.Store
	reg      *registry.Registry
	variant  Variant
}

// New creates an Assembler. An unknown variant falls back to VariantBundle.
func New(template string, store logstore.Store, reg *registry.Registry, variant Variant) *Assembler {
	if !variant.Valid() {
		variant = VariantBundle
	}
	return &Assembler{template: template, store: store, reg: reg, variant: variant}
}

// Assemble substitutes every template placeholder for a. All placeholders
// are replaced in a single pass, so artifact text that happens to contain
// "$name" or similar is never substituted again.
func (as *Assembler) Assemble(ctx context.Context, a *models.Artifact) (string, error) {
	logData, top, err := as.logData(ctx, a)
	if err != nil {
		return "", fmt.Errorf("page: log data for %s: %w", a.Name, err)
	}
	footDays, err := as.store.Days(ctx, logstore.Filter{})
	if err != nil {
		return "", fmt.Errorf("page: footer days: %w", err)
	}
	footHours, err := as.store.Hours(ctx, logstore.Filter{})
	if err != nil {
		return "", fmt.Errorf("page: footer hours: %w", err)
	}

	noHeader := ""
	if a.Image == "" {
		noHeader = noHeaderStyle
	}
	s := SectorFor(a, top)

	r := strings.NewReplacer(
		"$name", a.Name,
		"$strippedTitle", StripTags(a.Title),
		"$title", a.Title,
		"$headerTitle", a.ImageName,
		"$content", a.Content,
		"$lastModified", a.LastModified.Format("2006.01.02"),
		"$image", a.Image,
		"$noHeader", noHeader,
		"$logData", logData,
		"$sectorIcon", s.Icon(),
		"$sectorLink", s.Link(as.variant),
		"$links", linksHTML(a.Links),
		"$related", as.relatedHTML(a),
		"$tags", tagsHTML(a.Tags),
		"$logDays", strconv.Itoa(footDays)+" Days<br>",
		"$logHours", formatNumber(footHours)+" Hours",
	)
	return r.Replace(as.template), nil
}

// StripTags removes anything that looks like an HTML tag.
func StripTags(s string) string {
	return tagStripRe.ReplaceAllString(s, "")
}

// formatNumber prints the shortest decimal form, so 12.0 renders as "12".
func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
