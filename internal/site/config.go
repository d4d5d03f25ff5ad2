package site

import (
	"github.com/starford/vos/internal/markup"
	"github.com/starford/vos/internal/page"
)

// AssetCopy copies a file or directory from the source tree into the output.
type AssetCopy struct {
	From string
	To   string
}

// Config is everything one build needs. Paths are relative to the source
// provider's root, except outputs, which are relative to the output provider.
type Config struct {
	ArtifactDir  string
	TemplatePath string
	LogPath      string
	Assets       []AssetCopy
	Workers      int
	Variant      page.Variant
	HeaderRows   int
	Media        markup.MediaDirs
}
