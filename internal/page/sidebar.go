package page

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/starford/vos/internal/apperr"
	"github.com/starford/vos/internal/logstore"
	"github.com/starford/vos/internal/models"
)

const homeName = "home"

// logData renders the statistics box. It is shown for artifacts with
// logged time that are not professional work, and for the home page,
// which summarises the whole log. The returned sector is the division
// with the most hours, or "" when the box is not shown.
func (as *Assembler) logData(ctx context.Context, a *models.Artifact) (string, Sector, error) {
	home := a.Slug() == homeName
	f := logstore.Filter{Project: a.Name}
	if home {
		f = logstore.Filter{}
	} else {
		logged, err := as.store.HasProject(ctx, a.Name)
		if err != nil {
			return "", "", err
		}
		if !logged || a.HasTag("professional") {
			return "", "", nil
		}
	}

	first, last, err := as.store.DateRange(ctx, f)
	if err != nil && !errors.Is(err, apperr.ErrAggregationMiss) {
		return "", "", err
	}
	divs, err := as.store.Divisions(ctx, f.Project)
	if err != nil {
		return "", "", err
	}
	hours, err := as.store.Hours(ctx, f)
	if err != nil {
		return "", "", err
	}
	logs, err := as.store.Count(ctx, f)
	if err != nil {
		return "", "", err
	}
	days, err := as.store.Days(ctx, f)
	if err != nil {
		return "", "", err
	}

	sort.SliceStable(divs, func(i, j int) bool { return divs[i].Hours > divs[j].Hours })

	var b strings.Builder
	b.WriteString(`<div class="sideBox">`)
	fmt.Fprintf(&b, `<span class="sideText">%s · %s</span>`, dotted(first), dotted(last))
	for _, d := range divs {
		if !d.Present {
			continue
		}
		percent, offset := as.barWidth(d.Hours, hours, divs[0].Hours)
		fmt.Fprintf(&b, `<span class="logStat">%s</span><div class="logBar" style="width: calc(%s%% - %spx);"></div><br>`,
			divisionSectors[d.Division], formatNumber(percent), formatNumber(offset))
	}
	fmt.Fprintf(&b, `<span class="sideText">%s hours · %d logs</span>`, formatNumber(hours), logs)
	fmt.Fprintf(&b, `<span class="sideText">%d days · %s hours / day</span>`, days, hoursPerDay(hours, days))
	b.WriteString(`</div>`)
	b.WriteString(sideDivider)

	return b.String(), divisionSectors[divs[0].Division], nil
}

// barWidth returns the bar's percentage and the pixel amount subtracted
// from it for the label column.
func (as *Assembler) barWidth(hours, total, top float64) (float64, float64) {
	denom, px := total, 30.0
	if as.variant == VariantModule {
		denom, px = top, 35.0
	}
	if denom == 0 {
		return 0, 0
	}
	percent := hours / denom * 100
	return percent, percent / 100 * px
}

func hoursPerDay(hours float64, days int) string {
	if days == 0 {
		return strconv.FormatFloat(0, 'f', 1, 64)
	}
	return strconv.FormatFloat(hours/float64(days), 'f', 1, 64)
}

// dotted turns 2021-01-02 into 2021.01.02.
func dotted(date string) string {
	return strings.ReplaceAll(date, "-", ".")
}

func linksHTML(links []models.Link) string {
	if len(links) == 0 {
		return ""
	}
	var b strings.Builder
	for _, l := range links {
		fmt.Fprintf(&b, `<a href="%s" class="sideLinkHolder"><span class="neutralLink sideLink">%s</span></a>`, l.URL, l.Label)
	}
	b.WriteString(sideDivider)
	return b.String()
}

func (as *Assembler) relatedHTML(a *models.Artifact) string {
	related := as.reg.Related(a)
	if len(related) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString(`<span class="sideTitle"><b>Related</b></span>`)
	for _, r := range related {
		if r.Slug() == a.Slug() {
			fmt.Fprintf(&b, `<span class="sidebarRelatedTitle sidebarRelatedSame">%s</span>`, r.Title)
			continue
		}
		fmt.Fprintf(&b, `<span class="sidebarRelatedTitle">%s</span>`, r.Title)
	}
	b.WriteString(sideDivider)
	return b.String()
}

func tagsHTML(tags []string) string {
	var b strings.Builder
	for _, t := range tags {
		fmt.Fprintf(&b, `<a href="home#%s" class="sideLinkHolder"><span class="neutralLink sideLink">%s</span></a>`, TagLink(t), t)
	}
	b.WriteString(sideDivider)
	return b.String()
}
