package stats

// Spec describes how a numeric column is partitioned into histogram buckets.
// The domain [Low, High] is split into BucketCount buckets of equal width.
type Spec struct {
	// BucketCount is the number of buckets. Must be positive.
	BucketCount int `json:"bucket_count" yaml:"buckets"`

	// Low is the inclusive lower edge of the histogram domain.
	Low float64 `json:"low" yaml:"low"`

	// High is the inclusive upper edge of the histogram domain.
	// A value exactly equal to High is folded into the last bucket.
	High float64 `json:"high" yaml:"high"`
}

// Validate checks that the spec describes a computable histogram.
// It returns ErrInvalidBucketCount or ErrInvalidRange.
func (s Spec) Validate() error {
	if s.BucketCount <= 0 {
		return ErrInvalidBucketCount
	}
	if s.Low >= s.High {
		return ErrInvalidRange
	}
	return nil
}

// BucketWidth returns the width of each bucket.
// The result is meaningless for an invalid spec.
func (s Spec) BucketWidth() float64 {
	return (s.High - s.Low) / float64(s.BucketCount)
}

// Result holds the computed histogram. Boundaries and Weights are parallel
// slices of length Spec.BucketCount; Boundaries[i] is the lower edge of
// bucket i.
type Result struct {
	// Boundaries contains each bucket's inclusive lower edge.
	Boundaries []float64 `json:"boundaries"`

	// Weights contains the observation count per bucket.
	Weights []int `json:"weights"`

	// ExcludedCount is the number of observations that fell outside
	// [Low, High] and were not assigned to any bucket.
	ExcludedCount int `json:"excluded_count"`
}

// TotalWeight returns the number of observations assigned to a bucket.
// It does not include ExcludedCount.
func (r *Result) TotalWeight() int {
	var total int
	for _, w := range r.Weights {
		total += w
	}
	return total
}

// Compute bins values into the buckets described by spec.
//
// A value strictly below Low or strictly above High increments ExcludedCount
// and touches no weight. A value exactly equal to High computes to an index
// one past the last bucket; we clamp it into the last bucket instead of
// treating it as out of range.
func Compute(values []float64, spec Spec) (*Result, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}

	width := spec.BucketWidth()
	result := &Result{
		Boundaries: make([]float64, spec.BucketCount),
		Weights:    make([]int, spec.BucketCount),
	}
	for i := range result.Boundaries {
		result.Boundaries[i] = spec.Low + float64(i)*width
	}

	for _, v := range values {
		if v < spec.Low || v > spec.High {
			result.ExcludedCount++
			continue
		}
		index := int((v - spec.Low) / width)
		if index >= spec.BucketCount {
			index = spec.BucketCount - 1
		}
		result.Weights[index]++
	}

	return result, nil
}
