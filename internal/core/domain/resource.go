package domain

import "time"

// ResourceKind identifies one level of the platform's four-level hierarchy.
type ResourceKind string

const (
	KindCampaign ResourceKind = "campaign"
	KindAdSet    ResourceKind = "adset"
	KindCreative ResourceKind = "creative"
	KindAd       ResourceKind = "ad"
)

// RemoteResource is the durable record of one successfully created platform
// object. Records are append-only: the core never updates or deletes a
// resource once created, even when a deeper sibling fails.
type RemoteResource struct {
	Kind           ResourceKind
	RemoteID       string
	ParentRemoteID string
	CreatedAt      time.Time
}
