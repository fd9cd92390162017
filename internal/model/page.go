package model

// PageRecord is one parsed page entry from a crawl log.
// Records are produced once by the extractor and are immutable afterwards.
type PageRecord struct {
	// Link is the page identifier. Required, non-empty; the extractor
	// discards records that never produced a link.
	Link string `json:"link"`

	// SizeBytes is the page payload size. Only meaningful when SizeKnown
	// is true.
	SizeBytes int64 `json:"size_bytes"`

	// SizeKnown reports whether the log carried a parseable size for this
	// page. A missing or malformed size line leaves it false; the size is
	// never guessed and never silently zero.
	SizeKnown bool `json:"size_known"`

	// OutboundLinkCount is the number of entries in the page's link list.
	OutboundLinkCount int `json:"outbound_link_count"`

	// ImageCount is the number of entries in the page's image list.
	// Always equal to len(ImageRefs).
	ImageCount int `json:"image_count"`

	// ImageRefs holds the raw image URLs found on the page, in log order.
	// Used by the enrichment path to resolve image byte sizes.
	ImageRefs []string `json:"image_refs,omitempty"`
}

// FetchOutcome classifies the result of resolving one image reference.
type FetchOutcome string

// Fetch outcomes. Unknown and Failed are deliberately distinct: a server
// that answered but sent no Content-Length is not a fetch failure.
const (
	// OutcomeResolved means the server reported an explicit byte size.
	OutcomeResolved FetchOutcome = "resolved"

	// OutcomeUnknown means the fetch succeeded but the server provided no
	// size header; the sample's size is 0.
	OutcomeUnknown FetchOutcome = "unknown"

	// OutcomeFailed means the fetch errored (bad address, timeout,
	// non-2xx); the sample's size is FailedFetchSize.
	OutcomeFailed FetchOutcome = "failed"
)

// FailedFetchSize is the sentinel byte size recorded for a failed fetch.
// It is out of the legitimate size domain, distinguishing a failure from a
// genuine zero-byte resource.
const FailedFetchSize int64 = -1

// ImageSizeSample is one resolved image reference.
type ImageSizeSample struct {
	// Ref is the originating image reference, kept for diagnostics.
	Ref string `json:"ref"`

	// SizeBytes is the resolved byte size, 0 for OutcomeUnknown, or
	// FailedFetchSize for OutcomeFailed.
	SizeBytes int64 `json:"size_bytes"`

	// Outcome classifies how SizeBytes was obtained.
	Outcome FetchOutcome `json:"outcome"`
}
