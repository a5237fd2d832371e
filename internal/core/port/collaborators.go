package port

import (
	"context"

	"adforge/internal/core/domain"
)

// AnalysisInput describes the media and context handed to the generative
// model.
type AnalysisInput struct {
	MediaURL       string
	MediaType      string
	ProductContext string
	Counts         domain.StructureCounts
}

// CreativeIntelligence is the outbound port to the hosted generative model.
// Any subset of the returned insight fields may be missing; callers fill
// deterministic defaults before planning.
type CreativeIntelligence interface {
	Analyze(ctx context.Context, in AnalysisInput) (*domain.AIInsights, error)
}

// MediaAsset is a stable reference to stored media. ThumbnailURL is set for
// video uploads only.
type MediaAsset struct {
	URL          string
	ThumbnailURL string
}

// MediaStore resolves an upload reference into a servable asset.
type MediaStore interface {
	Resolve(ctx context.Context, ref, mediaType string) (*MediaAsset, error)
}
