// Package artifact reads portfolio source files: a block of "key: value"
// header lines, a "===" separator line, and free-form markup content.
package artifact

import (
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/dlclark/regexp2"

	"github.com/starford/vos/internal/apperr"
	"github.com/starford/vos/internal/markup"
	"github.com/starford/vos/internal/models"
)

var (
	lineEndingRe = regexp.MustCompile(`[ \t]*(\r?\n|\r)`)
	separatorRe  = regexp.MustCompile(`\s*===\s*`)
	headerLineRe = regexp.MustCompile(`\n+`)
	fileLinkRe   = regexp.MustCompile(`!\[(.*)\]\((.*)\)`)
	linkRe       = regexp.MustCompile(`\[(.*)\]\((.*)\)`)

	// "//" starts a comment unless escaped or part of a URL scheme.
	commentRe = regexp2.MustCompile(`[ \t]*(?<![\\:])//.*`, regexp2.None)
)

// Header keys with dedicated fields; anything else lands in Artifact.Extra.
const (
	KeyName      = "name"
	KeyTitle     = "title"
	KeyImageName = "imageName"
	KeyImage     = "image"
	KeyTags      = "tags"
	KeyLinks     = "links"
)

// Parse builds an artifact from the raw bytes of source. Header values are
// normalised (tags, links, image URL); title, image name and content are
// left as raw markup for the transformation passes.
func Parse(source string, data []byte, modTime time.Time, dirs markup.MediaDirs) (*models.Artifact, error) {
	text, err := clean(string(data))
	if err != nil {
		return nil, apperr.ForArtifact(source, apperr.StageIngest, err)
	}

	header, body, err := split(source, text)
	if err != nil {
		return nil, err
	}

	fields, err := parseHeader(source, header)
	if err != nil {
		return nil, err
	}

	name := fields[KeyName]
	if name == "" {
		return nil, apperr.Malformed(source, "missing %q", KeyName)
	}

	a := &models.Artifact{
		Name:         name,
		Title:        fields[KeyTitle],
		ImageName:    fields[KeyImageName],
		Tags:         normalizeTags(fields[KeyTags]),
		Links:        normalizeLinks(fields[KeyLinks], dirs.Files),
		Content:      body,
		Source:       source,
		LastModified: modTime,
	}
	if img, ok := fields[KeyImage]; ok && img != "" {
		a.Image = strings.ReplaceAll(EncodeURI(dirs.Images+img), "'", `\'`)
	}
	for k, v := range fields {
		switch k {
		case KeyName, KeyTitle, KeyImageName, KeyImage, KeyTags, KeyLinks:
			continue
		}
		if a.Extra == nil {
			a.Extra = make(map[string]string)
		}
		a.Extra[k] = v
	}
	return a, nil
}

// clean normalises line endings to "\n" and strips comments.
func clean(text string) (string, error) {
	text = lineEndingRe.ReplaceAllString(text, "\n")
	return commentRe.Replace(text, "", -1, -1)
}

// split separates the header block from the content at the first separator.
func split(source, text string) (string, string, error) {
	loc := separatorRe.FindStringIndex(text)
	if loc == nil {
		return "", "", apperr.Malformed(source, "missing === separator")
	}
	return strings.TrimSpace(text[:loc[0]]), strings.TrimSpace(text[loc[1]:]), nil
}

func parseHeader(source, header string) (map[string]string, error) {
	fields := make(map[string]string)
	for i, line := range headerLineRe.Split(header, -1) {
		if strings.TrimSpace(line) == "" {
			continue
		}
		key, value, ok := strings.Cut(line, ":")
		if !ok {
			return nil, apperr.Malformed(source, "header line %d has no key: %q", i+1, line)
		}
		key = strings.TrimSpace(key)
		if key == "" {
			return nil, apperr.Malformed(source, "header line %d has an empty key", i+1)
		}
		fields[key] = strings.TrimSpace(value)
	}
	return fields, nil
}

// normalizeTags lowercases, de-duplicates and sorts a comma separated list.
// The result is never nil.
func normalizeTags(raw string) []string {
	seen := make(map[string]struct{})
	out := []string{}
	for _, t := range strings.Split(raw, ",") {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" {
			continue
		}
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// normalizeLinks parses "[label](url)" and "![label](file)" entries. File
// entries resolve against filesDir.
func normalizeLinks(raw, filesDir string) []models.Link {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	var out []models.Link
	for _, item := range strings.Split(raw, ",") {
		item = strings.TrimSpace(item)
		var l models.Link
		if m := fileLinkRe.FindStringSubmatch(item); m != nil {
			l = models.Link{Label: strings.TrimSpace(m[1]), URL: filesDir + strings.TrimSpace(m[2])}
		} else if m := linkRe.FindStringSubmatch(item); m != nil {
			l = models.Link{Label: strings.TrimSpace(m[1]), URL: strings.TrimSpace(m[2])}
		} else {
			continue
		}
		out = append(out, l)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Label+","+out[i].URL < out[j].Label+","+out[j].URL
	})
	return out
}
