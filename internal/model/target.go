package model

// TargetRef identifies the target of an interaction in whichever shape the
// active protocol needs. It is resolved once at the UI boundary so internal
// logic switches on Protocol instead of duck-typing identifiers.
type TargetRef struct {
	Protocol Protocol

	// ID is the Mastodon status id; unused for Bluesky targets.
	ID string

	// URI+CID address a Bluesky record.
	URI string
	CID string

	// Known mutation record URIs, when the caller already has them cached.
	// Bluesky undo operations require the original mutation's own URI.
	LikeRef   string
	RepostRef string
}

// MastodonRef builds a target for a Mastodon status.
func MastodonRef(id string) TargetRef {
	return TargetRef{Protocol: ProtocolMastodon, ID: id}
}

// BlueskyRef builds a target for a Bluesky record.
func BlueskyRef(uri, cid string) TargetRef {
	return TargetRef{Protocol: ProtocolBluesky, URI: uri, CID: cid}
}

// Key returns the canonical status id the target resolves to.
func (r TargetRef) Key() string {
	if r.Protocol == ProtocolBluesky {
		return r.URI
	}
	return r.ID
}
