// Package resolver implements the second pass: it normalises block content
// produced by the markup rules and expands placeholder elements using the
// artifact registry, the log store, and the inline evaluator.
package resolver

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"

	"github.com/dlclark/regexp2"

	"github.com/starford/vos/internal/apperr"
	"github.com/starford/vos/internal/logfields"
	"github.com/starford/vos/internal/logstore"
	"github.com/starford/vos/internal/models"
	"github.com/starford/vos/internal/registry"
)

// Evaluator runs the expression captured by an inline-code marker.
type Evaluator interface {
	Evaluate(ctx context.Context, code string) (string, error)
}

// Resolver holds the read-only context shared by every artifact's second
// pass. It is safe for concurrent use once constructed.
type Resolver struct {
	reg    *registry.Registry
	store  logstore.Store
	eval   Evaluator
	logger *slog.Logger
}

// New creates a Resolver over a finished registry snapshot.
func New(reg *registry.Registry, store logstore.Store, eval Evaluator, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{reg: reg, store: store, eval: eval, logger: logger}
}

type stage struct {
	name string
	run  func(ctx context.Context, html string) (string, error)
}

// Tags whose text content gets <br> line breaks, in processing order.
var lineBreakTags = []string{"p", "blockquote", "ul", "ol", "code"}

func (r *Resolver) stages() []stage {
	st := make([]stage, 0, len(lineBreakTags)+6)
	for _, tag := range lineBreakTags {
		re := elementRe(tag)
		st = append(st, stage{"line-breaks:" + tag, func(_ context.Context, html string) (string, error) {
			return addLineBreaks(re, html)
		}})
	}
	return append(st,
		stage{"recent-pages", r.recentPages},
		stage{"recent-logs", r.recentLogs},
		stage{"stylized-links", r.stylizedLinks},
		stage{"line-syntax", stripLineSyntax},
		stage{"list-items", r.listItems},
		stage{"inline-code", r.inlineCode},
	)
}

// Resolve runs every second-pass stage over html, in order.
func (r *Resolver) Resolve(ctx context.Context, html string) (string, error) {
	out := html
	for _, s := range r.stages() {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		next, err := s.run(ctx, out)
		if err != nil {
			return "", fmt.Errorf("resolver: %s: %w", s.name, err)
		}
		out = next
	}
	return out, nil
}

// ResolveInline evaluates inline-code markers only. Titles carry no block
// structure, so the other stages do not apply to them.
func (r *Resolver) ResolveInline(ctx context.Context, html string) (string, error) {
	out, err := r.inlineCode(ctx, html)
	if err != nil {
		return "", fmt.Errorf("resolver: inline-code: %w", err)
	}
	return out, nil
}

// elementRe isolates an element as (start tag)(content)(end tag). The end
// tag may carry attributes, as code blocks do.
func elementRe(tag string) *regexp2.Regexp {
	return regexp2.MustCompile(`(<`+tag+`(?:\s[^>]*)?>)(.*?)(</`+tag+`(?:\s[^>]*)?>)`, regexp2.Singleline)
}

var (
	blockquoteRe = elementRe("blockquote")
	ulRe         = elementRe("ul")
	olRe         = elementRe("ol")

	quotePrefixRe = regexp2.MustCompile(`(^|<br>)> ?`, regexp2.None)
	ulItemRe      = regexp2.MustCompile(`(^|<br>)- (.+?)(?=<br>|\z)`, regexp2.None)
	olItemRe      = regexp2.MustCompile(`(^|<br>)[0-9]+\. ?(.+?)(?=<br>|\z)`, regexp2.None)

	recentPagesRe  = regexp2.MustCompile(`<div recentlyUpdatedPages="([^"]*?)"></div>`, regexp2.Singleline)
	recentLogsRe   = regexp2.MustCompile(`<div recentLogs="([^"]*?)"></div>`, regexp2.Singleline)
	stylizedLinkRe = regexp2.MustCompile(`<div href="([^"]*?)" class="stylizedLink">(.*?)</div>`, regexp2.Singleline)
	tagListRe      = regexp2.MustCompile(`(<ul class="tagList condensedList" tag="([^"]*?)"[^>]*?>)(.*?)(</ul>)`, regexp2.Singleline)
	tagTitleListRe = regexp2.MustCompile(`(<ul class="tagTitleList spaciousList" tag="([^"]*?)"[^>]*?>)(.*?)(</ul>)`, regexp2.Singleline)
	inlineCodeRe   = regexp2.MustCompile(`(<span class="execute" execute="([^"]*?)"[^>]*?>)(.*?)(</span>)`, regexp2.Singleline)
	leadingIntRe   = regexp.MustCompile(`^\s*([+-]?[0-9]+)`)
)

// addLineBreaks trims each element's content and turns newlines into <br>.
func addLineBreaks(re *regexp2.Regexp, html string) (string, error) {
	return rewrite(re, html, func(m *regexp2.Match) (string, error) {
		content := group(m, 2)
		if content == "" {
			return m.String(), nil
		}
		content = strings.ReplaceAll(strings.TrimSpace(content), "\n", "<br>")
		return group(m, 1) + content + group(m, 3), nil
	})
}

// withContent rewrites the content of every element matched by re.
func withContent(re *regexp2.Regexp, html string, fn func(string) (string, error)) (string, error) {
	return rewrite(re, html, func(m *regexp2.Match) (string, error) {
		content, err := fn(group(m, 2))
		if err != nil {
			return "", err
		}
		return group(m, 1) + content + group(m, 3), nil
	})
}

// stripLineSyntax removes quote markers and turns list lines into items.
func stripLineSyntax(_ context.Context, html string) (string, error) {
	out, err := withContent(blockquoteRe, html, func(c string) (string, error) {
		return quotePrefixRe.Replace(c, "$1", -1, -1)
	})
	if err != nil {
		return "", err
	}
	out, err = withContent(ulRe, out, func(c string) (string, error) {
		return ulItemRe.Replace(c, "<li>$2</li>", -1, -1)
	})
	if err != nil {
		return "", err
	}
	return withContent(olRe, out, func(c string) (string, error) {
		return olItemRe.Replace(c, "<li>$2</li>", -1, -1)
	})
}

// parseCount reads a leading integer the way a lenient number parser
// would: surrounding text after the digits is ignored.
func parseCount(s string) (int, bool) {
	m := leadingIntRe.FindStringSubmatch(s)
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return n, true
}

func (r *Resolver) unresolved(kind, value string) {
	r.logger.Debug("placeholder left unresolved",
		slog.String("kind", kind),
		slog.String("value", value),
		logfields.Error(apperr.ErrUnresolvedReference),
	)
}

// recentPages expands ?[N] into N stylized links to the newest artifacts,
// excluding navigation and debug pages. Each marker uses its own N.
func (r *Resolver) recentPages(_ context.Context, html string) (string, error) {
	return rewrite(recentPagesRe, html, func(m *regexp2.Match) (string, error) {
		n, ok := parseCount(group(m, 1))
		if !ok {
			r.unresolved("recent-pages", group(m, 1))
			return m.String(), nil
		}
		var b strings.Builder
		for _, a := range r.reg.RecentlyUpdated(n, "nav", "debug") {
			fmt.Fprintf(&b, `<div href="%s" class="stylizedLink">%s</div>`, a.Name, a.Name)
		}
		return b.String(), nil
	})
}

// recentLogs expands *[N] into a code block listing the first N log rows
// after the leading header row.
func (r *Resolver) recentLogs(ctx context.Context, html string) (string, error) {
	return rewrite(recentLogsRe, html, func(m *regexp2.Match) (string, error) {
		n, ok := parseCount(group(m, 1))
		if !ok {
			r.unresolved("recent-logs", group(m, 1))
			return m.String(), nil
		}
		rows, err := r.store.Rows(ctx, n+1)
		if err != nil {
			return "", err
		}
		lines := make([]string, 0, len(rows))
		for i, e := range rows {
			if i == 0 {
				continue
			}
			lines = append(lines, FormatLogLine(e))
		}
		return `<code class="codeBlock" style="text-overflow: ellipsis; overflow: hidden; white-space: nowrap;">` +
			strings.Join(lines, "<br><br>") + `</code>`, nil
	})
}

// FormatLogLine renders one row as "MM.DD · Nh · project · task · details".
func FormatLogLine(e models.LogEntry) string {
	date := ""
	if len(e.Date) > 5 {
		date = strings.Replace(e.Date[5:], "-", ".", 1)
	}
	return date + " · " + e.Time + "h · " + e.Project + " · " + e.Task + " · " + e.Details
}

// stylizedLinks turns &[name] placeholders into page cards. Unknown names
// are left untouched.
func (r *Resolver) stylizedLinks(_ context.Context, html string) (string, error) {
	return rewrite(stylizedLinkRe, html, func(m *regexp2.Match) (string, error) {
		href := group(m, 1)
		a, ok := r.reg.Lookup(href)
		if !ok {
			r.unresolved("stylized-link", href)
			return m.String(), nil
		}
		return Card(href, a), nil
	})
}

// Card renders the page card for a linked artifact.
func Card(href string, a *models.Artifact) string {
	return `<div class="pageCard"><a href="` + href + `" class="pageCardImage" style="background-image:url(` + a.Image +
		`)"></a><div class="pageCardTitle"><span>` + a.Title + `</span></div></div>`
}

// listItems fills tag lists with links and tag title lists with titles.
func (r *Resolver) listItems(_ context.Context, html string) (string, error) {
	out, err := rewrite(tagListRe, html, func(m *regexp2.Match) (string, error) {
		var b strings.Builder
		b.WriteString(group(m, 1))
		for _, a := range r.reg.WithTag(group(m, 2)) {
			fmt.Fprintf(&b, `<li><a href="%s" class="localLink">%s</a></li>`, a.Name, a.Name)
		}
		return b.String() + group(m, 3) + group(m, 4), nil
	})
	if err != nil {
		return "", err
	}
	return rewrite(tagTitleListRe, out, func(m *regexp2.Match) (string, error) {
		var b strings.Builder
		b.WriteString(group(m, 1))
		for _, a := range r.reg.WithTag(group(m, 2)) {
			b.WriteString("<li>" + a.Title + "</li>")
		}
		return b.String() + group(m, 3) + group(m, 4), nil
	})
}

// inlineCode appends each marker's evaluated result after its start tag.
func (r *Resolver) inlineCode(ctx context.Context, html string) (string, error) {
	return rewrite(inlineCodeRe, html, func(m *regexp2.Match) (string, error) {
		code := strings.ReplaceAll(group(m, 2), "&quot;", `"`)
		result, err := r.eval.Evaluate(ctx, code)
		if err != nil {
			return "", err
		}
		return group(m, 1) + result + group(m, 3) + group(m, 4), nil
	})
}
