package models

import "strings"

// Division labels used to classify logged time.
const (
	DivisionAbstract = "Abstract"
	DivisionAudio    = "Audio"
	DivisionCode     = "Code"
	DivisionVisual   = "Visual"
)

// Divisions lists every division in display order.
var Divisions = []string{DivisionAbstract, DivisionAudio, DivisionCode, DivisionVisual}

// LogEntry is one row of the productivity log, stored verbatim.
type LogEntry struct {
	Date     string `json:"date"`
	Time     string `json:"time"`
	Project  string `json:"project"`
	Task     string `json:"task"`
	Division string `json:"division"`
	Details  string `json:"details"`
}

func lower(s string) string { return strings.ToLower(s) }
