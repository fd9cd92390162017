package model

import "encoding/json"

// Column names exposed by Dataset. These match the field names used in the
// crawl log and the persisted output, so reports and stored runs line up
// with the raw data.
const (
	// ColumnSize is the page payload size in bytes.
	ColumnSize = "size"

	// ColumnLinkCount is the number of outbound links per page.
	ColumnLinkCount = "num_links"

	// ColumnImageCount is the number of images per page.
	ColumnImageCount = "num_images"

	// ColumnImageSize is the resolved image byte size, one observation per
	// fetched image reference (not per page). Failed fetches contribute
	// the FailedFetchSize sentinel.
	ColumnImageSize = "image_size"
)

// NumericColumns lists the columns that Column can serve, in report order.
var NumericColumns = []string{ColumnSize, ColumnLinkCount, ColumnImageCount, ColumnImageSize}

// Row is one page's view of the dataset, used by sinks that iterate
// row-wise (persistence, text reports). It carries no image references;
// those live in the flattened per-image sequence.
type Row struct {
	Link              string
	SizeBytes         int64
	SizeKnown         bool
	OutboundLinkCount int
	ImageCount        int
}

// Dataset is a column-oriented table of per-page metrics, one row per
// successfully parsed record, insertion order equal to log order.
//
// Design decision: We store parallel column slices rather than a slice of
// row structs because every downstream consumer (histograms, CSV, reports)
// works on whole columns; rows are reconstructed only for persistence.
//
// A Dataset is built once per log and must be treated as read-only after
// construction completes.
type Dataset struct {
	links       []string
	sizes       []int64
	sizeKnown   []bool
	linkCounts  []int
	imageCounts []int

	// imageRefs is the flattened sequence of image references across all
	// records, in log order. It feeds the enrichment path.
	imageRefs []string

	// imageSamples holds resolved sizes, parallel to imageRefs once
	// enrichment has run. Empty when enrichment was not requested.
	imageSamples []ImageSizeSample
}

// NewDataset returns an empty Dataset.
func NewDataset() *Dataset {
	return &Dataset{}
}

// AppendRecord adds one parsed page to the dataset.
func (d *Dataset) AppendRecord(rec PageRecord) {
	d.links = append(d.links, rec.Link)
	d.sizes = append(d.sizes, rec.SizeBytes)
	d.sizeKnown = append(d.sizeKnown, rec.SizeKnown)
	d.linkCounts = append(d.linkCounts, rec.OutboundLinkCount)
	d.imageCounts = append(d.imageCounts, rec.ImageCount)
	d.imageRefs = append(d.imageRefs, rec.ImageRefs...)
}

// AppendImageSamples records resolved image sizes. Samples must be in the
// same order as ImageRefs.
func (d *Dataset) AppendImageSamples(samples ...ImageSizeSample) {
	d.imageSamples = append(d.imageSamples, samples...)
}

// Len returns the number of page rows.
func (d *Dataset) Len() int {
	return len(d.links)
}

// Links returns the page identifiers in log order.
func (d *Dataset) Links() []string {
	return d.links
}

// ImageRefs returns every image reference across all records, in log order.
func (d *Dataset) ImageRefs() []string {
	return d.imageRefs
}

// ImageSamples returns the resolved image size samples, in the same order
// as ImageRefs. Empty if enrichment has not run.
func (d *Dataset) ImageSamples() []ImageSizeSample {
	return d.imageSamples
}

// RowAt returns the i-th page row.
func (d *Dataset) RowAt(i int) Row {
	return Row{
		Link:              d.links[i],
		SizeBytes:         d.sizes[i],
		SizeKnown:         d.sizeKnown[i],
		OutboundLinkCount: d.linkCounts[i],
		ImageCount:        d.imageCounts[i],
	}
}

// Column returns the named numeric column as raw observations for
// histogram computation.
//
// For ColumnSize, rows whose size is absent are omitted: an unknown size is
// not an observation of zero. For ColumnImageSize the resolved samples are
// returned verbatim, sentinels included; a histogram spec with a
// non-negative Low excludes them naturally.
func (d *Dataset) Column(name string) ([]float64, error) {
	switch name {
	case ColumnSize:
		values := make([]float64, 0, len(d.sizes))
		for i, size := range d.sizes {
			if d.sizeKnown[i] {
				values = append(values, float64(size))
			}
		}
		return values, nil
	case ColumnLinkCount:
		return intColumn(d.linkCounts), nil
	case ColumnImageCount:
		return intColumn(d.imageCounts), nil
	case ColumnImageSize:
		values := make([]float64, len(d.imageSamples))
		for i, s := range d.imageSamples {
			values[i] = float64(s.SizeBytes)
		}
		return values, nil
	default:
		return nil, ErrUnknownColumn
	}
}

// Columns returns all numeric columns keyed by name, sharing one row index
// per page for the per-page columns. This is the column-oriented view
// consumed by reporting sinks.
func (d *Dataset) Columns() map[string][]float64 {
	columns := make(map[string][]float64, len(NumericColumns))
	for _, name := range NumericColumns {
		col, err := d.Column(name)
		if err != nil {
			continue
		}
		columns[name] = col
	}
	return columns
}

func intColumn(values []int) []float64 {
	out := make([]float64, len(values))
	for i, v := range values {
		out[i] = float64(v)
	}
	return out
}

// MarshalJSON serializes the dataset column-wise. Absent sizes become JSON
// null rather than zero.
func (d *Dataset) MarshalJSON() ([]byte, error) {
	sizes := make([]*int64, len(d.sizes))
	for i := range d.sizes {
		if d.sizeKnown[i] {
			sizes[i] = &d.sizes[i]
		}
	}

	return json.Marshal(struct {
		Links        []string          `json:"link"`
		Sizes        []*int64          `json:"size"`
		LinkCounts   []int             `json:"num_links"`
		ImageCounts  []int             `json:"num_images"`
		ImageSamples []ImageSizeSample `json:"image_samples,omitempty"`
	}{
		Links:        d.links,
		Sizes:        sizes,
		LinkCounts:   d.linkCounts,
		ImageCounts:  d.imageCounts,
		ImageSamples: d.imageSamples,
	})
}
