package answer

import (
	"errors"
	"fmt"
)

// Default retrieval policy values.
const (
	DefaultTopK           = 5
	DefaultThreshold      = 0.4
	DefaultSupplement     = 0.6
	DefaultHighConfidence = 0.8
)

// ErrInvalidPolicy is returned by Policy.Validate.
var ErrInvalidPolicy = errors.New("invalid retrieval policy")

// Policy holds the retrieval thresholds. Similarities are compared
// inclusively against every threshold.
type Policy struct {
	// TopK is the maximum number of ranked matches considered.
	TopK int `yaml:"top_k"`
	// Threshold is the minimum similarity for a match at all.
	Threshold float64 `yaml:"threshold"`
	// Supplement is the minimum similarity for a non-best match to be
	// listed as related information.
	Supplement float64 `yaml:"supplement"`
	// HighConfidence is the similarity at which the best answer is
	// returned without a reference prefix.
	HighConfidence float64 `yaml:"high_confidence"`
}

// DefaultPolicy returns the default retrieval policy.
func DefaultPolicy() Policy {
	return Policy{
		TopK:           DefaultTopK,
		Threshold:      DefaultThreshold,
		Supplement:     DefaultSupplement,
		HighConfidence: DefaultHighConfidence,
	}
}

// Validate checks that the thresholds are ordered and in range.
func (p Policy) Validate() error {
	if p.TopK < 1 {
		return fmt.Errorf("%w: top_k must be at least 1, got %d", ErrInvalidPolicy, p.TopK)
	}
	if p.Threshold < 0 || p.Threshold > 1 {
		return fmt.Errorf("%w: threshold must be in [0,1], got %g", ErrInvalidPolicy, p.Threshold)
	}
	if p.HighConfidence < p.Threshold || p.HighConfidence > 1 {
		return fmt.Errorf("%w: high_confidence must be in [threshold,1], got %g", ErrInvalidPolicy, p.HighConfidence)
	}
	if p.Supplement < 0 || p.Supplement > 1 {
		return fmt.Errorf("%w: supplement must be in [0,1], got %g", ErrInvalidPolicy, p.Supplement)
	}
	return nil
}
