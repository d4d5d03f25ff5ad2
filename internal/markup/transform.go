package markup

import (
	"fmt"

	"github.com/starford/vos/internal/models"
)

// Transform applies every rule in rs to text, in order, over the whole
// accumulated string. A construct produced by one rule stays visible to
// the rules after it.
func Transform(text string, rs RuleSet) (string, error) {
	out := text
	for _, r := range rs {
		var next string
		var err error
		if r.Replace != nil {
			next, err = r.Pattern.ReplaceFunc(out, r.Replace, -1, -1)
		} else {
			next, err = r.Pattern.Replace(out, r.Template, -1, -1)
		}
		if err != nil {
			return "", fmt.Errorf("markup: rule %s: %w", r.Name, err)
		}
		out = next
	}
	return out, nil
}

// Transformer holds the three rule chains for one media configuration.
type Transformer struct {
	content   RuleSet
	title     RuleSet
	imageName RuleSet
}

// NewTransformer compiles the rule chains for dirs.
func NewTransformer(dirs MediaDirs) *Transformer {
	return &Transformer{
		content:   ContentRules(dirs),
		title:     TitleRules(),
		imageName: ImageNameRules(),
	}
}

// Content runs the body chain.
func (t *Transformer) Content(text string) (string, error) { return Transform(text, t.content) }

// Title runs the title chain.
func (t *Transformer) Title(text string) (string, error) { return Transform(text, t.title) }

// ImageName runs the image caption chain.
func (t *Transformer) ImageName(text string) (string, error) { return Transform(text, t.imageName) }

// Apply rewrites a's title, content and image name in place.
func (t *Transformer) Apply(a *models.Artifact) error {
	var err error
	if a.Title, err = t.Title(a.Title); err != nil {
		return err
	}
	if a.Content, err = t.Content(a.Content); err != nil {
		return err
	}
	if a.ImageName, err = t.ImageName(a.ImageName); err != nil {
		return err
	}
	return nil
}
