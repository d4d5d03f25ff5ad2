package markup

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/starford/vos/internal/models"
)

// lookup returns the rule with the given name.
func (rs RuleSet) lookup(name string) (Rule, bool) {
	for _, r := range rs {
		if r.Name == name {
			return r, true
		}
	}
	return Rule{}, false
}

var testDirs = MediaDirs{
	Files:  "https://cdn.example/files/",
	Images: "https://cdn.example/images/",
	Sounds: "https://cdn.example/sounds/",
	Videos: "https://cdn.example/videos/",
}

func content(t *testing.T, in string) string {
	t.Helper()
	out, err := Transform(in, ContentRules(testDirs))
	if err != nil {
		t.Fatalf("Transform(%q): %v", in, err)
	}
	return out
}

func TestContent_Constructs(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "plain text is only wrapped",
			in:   "hello world",
			want: "<p>hello world</p>",
		},
		{
			name: "empty input produces nothing",
			in:   "",
			want: "",
		},
		{
			name: "heading then paragraph",
			in:   "# Title\n\nSome **bold** text.",
			want: "<h2 id=\"Title\">Title</h2><p>\n\nSome <b>bold</b> text.</p>",
		},
		{
			name: "subheading",
			in:   "## Part",
			want: `<h3 id="Part">Part</h3>`,
		},
		{
			name: "italic",
			in:   "an *aside* here",
			want: "<p>an <i>aside</i> here</p>",
		},
		{
			name: "inline code",
			in:   "run `make`",
			want: "<p>run <code>make</code></p>",
		},
		{
			name: "quote block keeps line prefixes",
			in:   "> quoted line\n> second\n\nafter",
			want: "<blockquote>> quoted line\n> second</blockquote><p>\n\nafter</p>",
		},
		{
			name: "condensed list",
			in:   "- one\n- two\n\ntext",
			want: "<ul class=\"condensedList\">- one\n- two</ul><p>\n\ntext</p>",
		},
		{
			name: "spacious list at end of input",
			in:   "1. first\n2. second",
			want: "<ol class=\"spaciousList\">1. first\n2. second</ol>",
		},
		{
			name: "divider needs a blank line before it",
			in:   "above\n\n---\nbelow",
			want: "<p>above\n\n</p><hr><p>\nbelow</p>",
		},
		{
			name: "tag list placeholder",
			in:   "=[music]",
			want: `<ul class="tagList condensedList" tag="music"></ul>`,
		},
		{
			name: "tag title list placeholder",
			in:   "-[ music]",
			want: `<ul class="tagTitleList spaciousList" tag="music"></ul>`,
		},
		{
			name: "stylized link placeholder",
			in:   "&[home]",
			want: `<div href="home" class="stylizedLink">home</div>`,
		},
		{
			name: "recent pages placeholder",
			in:   "?[2]",
			want: `<div recentlyUpdatedPages="2"></div>`,
		},
		{
			name: "recent logs placeholder",
			in:   "*[3]",
			want: `<div recentLogs="3"></div>`,
		},
		{
			name: "execute marker",
			in:   "total %[logHours()] hours",
			want: `<p>total <span class="execute" execute="logHours()"></span> hours</p>`,
		},
		{
			name: "local and external links",
			in:   "see @[about] or [site](https://example.com)",
			want: `<p>see <a href="about" class="localLink">about</a> or <a href="https://example.com">site</a></p>`,
		},
		{
			name: "video embed",
			in:   "![clip](reel/intro.mp4)",
			want: `<video class="video" controls="" src="https://cdn.example/videos/reel/intro.mp4" alt="clip"></video>`,
		},
		{
			name: "audio embed",
			in:   "![song](a b.mp3)",
			want: `<audio class="audio" controls=""><source src="https://cdn.example/sounds/a b.mp3" alt="song"></audio>`,
		},
		{
			name: "file embed falls back to a link",
			in:   "get ![the pdf](cv.pdf)",
			want: `<p>get <a href="https://cdn.example/files/cv.pdf" alt="the pdf">the pdf</a></p>`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if diff := cmp.Diff(tt.want, content(t, tt.in)); diff != "" {
				t.Errorf("mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestContent_ImageEmbed(t *testing.T) {
	got := content(t, "![cat](pics/cat.png)")
	want := `<img class="textImage" src="https://cdn.example/images/pics/cat.png" alt="cat">`
	if !strings.HasPrefix(got, want) {
		t.Errorf("image embed = %q", got)
	}
}

func TestContent_CodeBlock(t *testing.T) {
	got := content(t, "intro\n```\nx := 1\n```")
	want := "<p>intro\n</p><code class=\"codeBlock\">x := 1\n</code class=\"codeBlock\">"
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}

func TestEscaping(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"escaped italic", `\*not italic\*`, "<p>*not italic*</p>"},
		{"escaped bold", `\*\*still plain\*\*`, "<p>**still plain**</p>"},
		{"escaped code", "\\`tick", "<p>`tick</p>"},
		{"escaped link", `\[a](b)`, "<p>[a](b)</p>"},
		{"escaped local link", `\@[about]`, "<p>@[about]</p>"},
		{"escaped stylized link", `\&[home]`, "<p>&[home]</p>"},
		{"escaped execute", `\%[logDays()]`, "<p>%[logDays()]</p>"},
		{"escaped heading", `\# not a heading`, "<p># not a heading</p>"},
		{"double backslash keeps markup", `\\*a*`, `<p>\<i>a</i></p>`},
		{"double backslash alone", `a\\b`, `<p>a\b</p>`},
		{"two pairs collapse", `a\\\\b`, `<p>a\\b</p>`},
		{"pair then escaped trigger", `a \\\*b`, `<p>a \*b</p>`},
		{"two pairs keep markup", `\\\\*x*`, `<p>\\<i>x</i></p>`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if diff := cmp.Diff(tt.want, content(t, tt.in)); diff != "" {
				t.Errorf("mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestExecuteMarkerEncodesQuotes(t *testing.T) {
	got := content(t, `%[logHours("vos")]`)
	if want := `<p><span class="execute" execute="logHours(&quot;vos&quot;)"></span></p>`; got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestBoldClaimsEscapedAsterisks(t *testing.T) {
	got := content(t, `**\*text\***`)
	if want := "<p><b>*text*</b></p>"; got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestBlockElementsNeverInsideParagraph(t *testing.T) {
	in := "intro\n\n# Head\ntext after\n\n- a\n- b\n\n> q\n\nend"
	got := content(t, in)
	for _, open := range []string{"<h2", "<ul", "<blockquote"} {
		idx := strings.Index(got, open)
		if idx < 0 {
			t.Fatalf("%s missing from %q", open, got)
		}
		before := got[:idx]
		if strings.LastIndex(before, "<p>") > strings.LastIndex(before, "</p>") {
			t.Errorf("%s opened inside a paragraph: %q", open, got)
		}
	}
}

func TestTitleRules(t *testing.T) {
	got, err := Transform(`**Big** *idea* @[home] %[pageCount()] [x](y) \*`, TitleRules())
	if err != nil {
		t.Fatal(err)
	}
	want := `<b>Big</b> <i>idea</i> <a href="home" class="localLink">home</a> <span class="execute" execute="pageCount()"></span> <a href="y">x</a> *`
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}

func TestTitleRules_NoBlocksOrParagraphs(t *testing.T) {
	got, err := Transform("# not a heading", TitleRules())
	if err != nil {
		t.Fatal(err)
	}
	if got != "# not a heading" {
		t.Errorf("got %q", got)
	}
}

func TestImageNameRules(t *testing.T) {
	got, err := Transform(`**kept** @[home]`, ImageNameRules())
	if err != nil {
		t.Fatal(err)
	}
	if want := `**kept** <a href="home" class="localLink">home</a>`; got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestMediaDirWithDollarIsLiteral(t *testing.T) {
	rs := ContentRules(MediaDirs{Files: "https://x/$1/"})
	got, err := Transform("![f](a.zip)", rs)
	if err != nil {
		t.Fatal(err)
	}
	if want := `<p><a href="https://x/$1/a.zip" alt="f">f</a></p>`; got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestRuleOrder(t *testing.T) {
	rules := ContentRules(testDirs)
	pos := map[string]int{}
	for i, r := range rules {
		pos[r.Name] = i
	}
	if pos["bold"] > pos["italic"] {
		t.Error("bold must run before italic")
	}
	if pos["unescape"] > pos["paragraph-open"] {
		t.Error("unescape must run before paragraph wrapping")
	}
	if _, ok := rules.lookup("recent-logs"); !ok {
		t.Error("recent-logs rule missing")
	}
}

func TestTransformer_Apply(t *testing.T) {
	a := &models.Artifact{
		Name:      "demo",
		Title:     "*Demo*",
		ImageName: "by @[me]",
		Content:   "text",
	}
	if err := NewTransformer(testDirs).Apply(a); err != nil {
		t.Fatal(err)
	}
	if a.Title != "<i>Demo</i>" {
		t.Errorf("title = %q", a.Title)
	}
	if a.ImageName != `by <a href="me" class="localLink">me</a>` {
		t.Errorf("image name = %q", a.ImageName)
	}
	if a.Content != "<p>text</p>" {
		t.Errorf("content = %q", a.Content)
	}
}
