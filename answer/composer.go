package answer

import (
	"strings"

	"github.com/poiesic/answerdesk/core"
)

// Default response texts.
const (
	DefaultNotFoundMessage = "Sorry, I could not find an answer to that question. " +
		"Please try rephrasing it or contact the help desk."
	DefaultReferenceLabel = "reference"
	DefaultRelatedHeader  = "Related information:"
)

// Composer turns ranked matches into the response text.
type Composer struct {
	policy          Policy
	notFoundMessage string
	referenceLabel  string
	relatedHeader   string
}

// Option configures a Composer.
type Option func(*Composer) error

// WithNotFoundMessage sets the text returned when nothing matched.
func WithNotFoundMessage(msg string) Option {
	return func(c *Composer) error {
		if msg != "" {
			c.notFoundMessage = msg
		}
		return nil
	}
}

// WithReferenceLabel sets the label of the reference prefix.
func WithReferenceLabel(label string) Option {
	return func(c *Composer) error {
		if label != "" {
			c.referenceLabel = label
		}
		return nil
	}
}

// WithRelatedHeader sets the header line of the related information block.
func WithRelatedHeader(header string) Option {
	return func(c *Composer) error {
		if header != "" {
			c.relatedHeader = header
		}
		return nil
	}
}

// NewComposer creates a composer applying policy.
func NewComposer(policy Policy, opts ...Option) (*Composer, error) {
	if err := policy.Validate(); err != nil {
		return nil, err
	}
	c := &Composer{
		policy:          policy,
		notFoundMessage: DefaultNotFoundMessage,
		referenceLabel:  DefaultReferenceLabel,
		relatedHeader:   DefaultRelatedHeader,
	}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// Policy returns the policy the composer applies.
func (c *Composer) Policy() Policy {
	return c.policy
}

// NotFoundMessage returns the text used for misses.
func (c *Composer) NotFoundMessage() string {
	return c.notFoundMessage
}

// Compose builds the response for matches, which must be sorted best first.
// found is false when matches is empty; the caller should then log the miss.
//
// A best match at or above HighConfidence is returned verbatim. Below that
// it is prefixed with "[<label>: <matched question>]". Further matches at or
// above Supplement are appended as a related information list.
func (c *Composer) Compose(matches []core.RankedMatch) (text string, found bool) {
	if len(matches) == 0 {
		return c.notFoundMessage, false
	}

	best := matches[0]
	var b strings.Builder
	if best.Similarity < c.policy.HighConfidence {
		b.WriteString("[")
		b.WriteString(c.referenceLabel)
		b.WriteString(": ")
		b.WriteString(best.Question)
		b.WriteString("]\n\n")
	}
	b.WriteString(best.Answer)

	header := false
	for _, m := range matches[1:] {
		if m.Similarity < c.policy.Supplement {
			continue
		}
		if !header {
			b.WriteString("\n\n")
			b.WriteString(c.relatedHeader)
			header = true
		}
		b.WriteString("\n- ")
		b.WriteString(m.Answer)
	}
	return b.String(), true
}
