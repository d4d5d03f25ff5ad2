package page

import (
	"strings"

	"github.com/starford/vos/internal/models"
)

// Sector is the three-letter category shown in a page header.
type Sector string

const (
	SectorDefault      Sector = "DEF"
	SectorAbstract     Sector = "ABS"
	SectorAudio        Sector = "AUD"
	SectorCode         Sector = "COD"
	SectorVisual       Sector = "VIS"
	SectorWriting      Sector = "WRI"
	SectorProfessional Sector = "PRO"
)

var divisionSectors = map[string]Sector{
	models.DivisionAbstract: SectorAbstract,
	models.DivisionAudio:    SectorAudio,
	models.DivisionCode:     SectorCode,
	models.DivisionVisual:   SectorVisual,
}

// DivisionSector returns the sector code for a log division, or "" when
// the division is unknown.
func DivisionSector(division string) Sector {
	return divisionSectors[division]
}

// SectorFor derives the sector from the artifact's tags and its top logged
// division (SectorDefault when no log data was shown).
func SectorFor(a *models.Artifact, top Sector) Sector {
	s := top
	if s == "" {
		s = SectorDefault
	}
	if a.HasTag("writing") && s == SectorAbstract {
		s = SectorWriting
	}
	if a.HasTag("professional") {
		s = SectorProfessional
	}
	if !a.HasTag("project") {
		s = SectorDefault
	}
	return s
}

// Icon is the header icon path for the sector.
func (s Sector) Icon() string {
	return "../assets/ui/" + strings.ToLower(string(s)) + ".svg"
}

// Link is the home page anchor the sector icon points at.
func (s Sector) Link(v Variant) string {
	switch s {
	case SectorAbstract, SectorWriting:
		return "Writing"
	case SectorAudio:
		return "Single"
	case SectorCode:
		return "Tool"
	case SectorVisual:
		return "Graphic"
	case SectorProfessional:
		if v == VariantModule {
			return "Professional"
		}
		return "Graphic"
	}
	return ""
}

// TagLink maps a tag to the home page category it belongs to.
func TagLink(tag string) string {
	switch tag {
	case "audio", "album", "single":
		return "Single"
	case "code", "tool", "interactive", "display":
		return "Tool"
	case "visual", "graphic", "photography", "project":
		return "Graphic"
	case "writing", "research":
		return "Writing"
	case "professional":
		return "Professional"
	}
	return ""
}
