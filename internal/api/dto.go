package api

import (
	"github.com/starford/vos/internal/site"
	"github.com/starford/vos/internal/siteservice"
)

// RenderRequest is the request body for rendering a markup fragment.
type RenderRequest struct {
	Text string `json:"text" example:"# Hello\n\n=[code]" validate:"required"`
}

// RenderResponse carries the resolved HTML of a fragment.
type RenderResponse struct {
	HTML string `json:"html" validate:"required"`
}

// EvaluateRequest is the request body for an inline expression.
type EvaluateRequest struct {
	Expression string `json:"expression" example:"logHours('vos')" validate:"required"`
}

// EvaluateResponse carries the formatted expression result.
type EvaluateResponse struct {
	Result string `json:"result" example:"42" validate:"required"`
}

// ArtifactListResponse wraps artifact listings.
type ArtifactListResponse struct {
	Artifacts []siteservice.ArtifactListItem `json:"artifacts" validate:"required"`
	Total     int                            `json:"total" example:"42" validate:"required"`
}

// RebuildResponse summarizes a build triggered through the API.
type RebuildResponse struct {
	Written    []string       `json:"written"`
	Unchanged  int            `json:"unchanged"`
	Failed     []site.Failure `json:"failed"`
	DurationMS int64          `json:"duration_ms"`
}
