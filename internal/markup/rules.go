// Package markup implements the first transformation pass: an ordered table
// of pattern → template substitutions that turns artifact markup into
// intermediate HTML with placeholder elements for the resolver.
package markup

import (
	"strings"

	"github.com/dlclark/regexp2"
)

// esc rejects a trigger character preceded by an odd run of backslashes,
// so `\*` is literal while `\\*` is a literal backslash before live markup.
const esc = `(?<!(?<!\\)(?:\\\\)*\\)`

// Rule is one named substitution. Template uses $1-style group references.
// When Replace is set it builds the replacement instead of Template.
type Rule struct {
	Name     string
	Pattern  *regexp2.Regexp
	Template string
	Replace  regexp2.MatchEvaluator
}

// RuleSet is applied in order; each rule sees the previous rule's output.
type RuleSet []Rule

// MediaDirs holds the absolute base URLs embedded media resolve against.
type MediaDirs struct {
	Files  string
	Images string
	Sounds string
	Videos string
}

func rule(name, pattern string, opts regexp2.RegexOptions, template string) Rule {
	return Rule{Name: name, Pattern: regexp2.MustCompile(pattern, opts), Template: template}
}

// executeSpan wraps an inline expression in its marker element. Double
// quotes are entity-encoded so they cannot end the attribute early.
func executeSpan(m regexp2.Match) string {
	code := m.GroupByNumber(1).String()
	return `<span class="execute" execute="` + strings.ReplaceAll(code, `"`, "&quot;") + `"></span>`
}

// literal escapes s for use inside a substitution template.
func literal(s string) string {
	return strings.ReplaceAll(s, "$", "$$")
}

const (
	none      = regexp2.None
	dotAll    = regexp2.Singleline
	multiline = regexp2.Multiline
)

var (
	boldRule   = rule("bold", esc+`\*\*\s?((?:\\\*|[^*])+)`+esc+`\*\*`, none, `<b>$1</b>`)
	italicRule = rule("italic", esc+`\*\s?((?:\\\*|[^*])+)`+esc+`\*`, none, `<i>$1</i>`)

	executeRule      = Rule{Name: "execute", Pattern: regexp2.MustCompile(esc+`%\[([^\]]+)\]`, none), Replace: executeSpan}
	localLinkRule    = rule("local-link", esc+`@\[([^\]]+)\]`, none, `<a href="$1" class="localLink">$1</a>`)
	externalLinkRule = rule("external-link", esc+`\[([^\]]+)\]\(([^)]+)\)`, none, `<a href="$2">$1</a>`)

	// A backslash pair collapses to one literal backslash; a lone one is dropped.
	unescapeRule = rule("unescape", `\\(\\)?`, none, `$1`)
)

// ContentRules returns the full rule chain for artifact bodies.
func ContentRules(dirs MediaDirs) RuleSet {
	return RuleSet{
		// Block constructs keep their line breaks; the resolver turns them
		// into <br> and strips the line prefixes later.
		rule("quote", esc+`(> +.+?)(\n{2,}|\z)`, dotAll, `<blockquote>$1</blockquote>$2`),
		rule("spacious-list", `^`+esc+`([0-9]+\. +.+?)(\n[^0-9]|$(?![\r\n]))`, dotAll|multiline, `<ol class="spaciousList">$1</ol>$2`),
		rule("condensed-list", `^`+esc+`(- +.+?)(\n[^-]|$(?![\r\n]))`, dotAll|multiline, `<ul class="condensedList">$1</ul>$2`),

		rule("subheading", `^`+esc+`#{2}\s?([^\n]+)`, multiline, `<h3 id="$1">$1</h3>`),
		rule("heading", `^`+esc+`#{1}\s?([^\n]+)`, multiline, `<h2 id="$1">$1</h2>`),

		rule("divider", `^`+esc+`(\n)-{3,}(\s?\n)`, multiline, `$1<hr>$2`),

		// bold must run first: its trigger is a superset of italic's.
		boldRule,
		italicRule,

		rule("code-block", "^"+esc+"`{3}\\n\\s?([^`]+)`{3}", multiline, `<code class="codeBlock">$1</code class="codeBlock">`),
		rule("code", esc+"`\\s?([^`]+)`", none, `<code>$1</code>`),

		rule("tag-list", `^`+esc+`=\[\s?([^\]]+)\]`, multiline, `<ul class="tagList condensedList" tag="$1"></ul>`),
		rule("tag-title-list", `^`+esc+`-\[\s?([^\]]+)\]`, multiline, `<ul class="tagTitleList spaciousList" tag="$1"></ul>`),

		rule("image", esc+`!\[([^\]]+)\]\(([^)]+)(\.png|\.jpg|\.gif)\)`, none,
			`<img class="textImage" src="`+literal(dirs.Images)+`$2$3" alt="$1">`),
		rule("video", esc+`!\[([^\]]+)\]\(([^)]+)(\.mp4|\.mov)\)`, none,
			`<video class="video" controls="" src="`+literal(dirs.Videos)+`$2$3" alt="$1"></video>`),
		rule("audio", esc+`!\[([^\]]+)\]\(([^)]+)(\.mp3|\.wav)\)`, none,
			`<audio class="audio" controls=""><source src="`+literal(dirs.Sounds)+`$2$3" alt="$1"></audio>`),
		rule("file", esc+`!\[([^\]]+)\]\(([^)]+)(\.*?)\)`, none,
			`<a href="`+literal(dirs.Files)+`$2$3" alt="$1">$1</a>`),

		executeRule,
		localLinkRule,
		externalLinkRule,
		rule("stylized-link", esc+`&\[([^\]]+)\]`, none, `<div href="$1" class="stylizedLink">$1</div>`),
		rule("recent-pages", esc+`\?\[([^\]]+)\]`, none, `<div recentlyUpdatedPages="$1"></div>`),
		rule("recent-logs", esc+`\*\[([^\]]+)\]`, none, `<div recentLogs="$1"></div>`),

		unescapeRule,

		// Paragraphs: wrap everything, then split around block elements
		// and drop whatever ends up empty.
		rule("paragraph-open", `^`, none, `<p>`),
		rule("paragraph-close", `\z`, none, `</p>`),
		rule("paragraph-reopen",
			`(</div>|</h1>|</h2>|</h3>|</h4>|</blockquote>|</ol>|</ul>|</code class="codeBlock">|<hr>|<img.+>|</video>|</audio>)`,
			none, `$1<p>`),
		rule("paragraph-split",
			`(<div|<h1|<h2|<h3|<h4|<blockquote|<ol|<ul|<code class="codeBlock"|<hr|<img|<video|<audio)`,
			none, `</p>$1`),
		rule("paragraph-empty", `<p>\n*</p>`, none, ``),
	}
}

// TitleRules returns the single-line subset used for titles.
func TitleRules() RuleSet {
	return RuleSet{boldRule, italicRule, localLinkRule, executeRule, externalLinkRule, unescapeRule}
}

// ImageNameRules returns the rules applied to header image captions.
func ImageNameRules() RuleSet {
	return RuleSet{localLinkRule}
}
