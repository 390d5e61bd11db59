// Package answer composes the response text from ranked matches.
//
// The retrieval Policy carries every tunable threshold:
//
//	TopK            5    matches considered
//	Threshold       0.4  minimum similarity for any match
//	Supplement      0.6  minimum similarity for related information
//	HighConfidence  0.8  best match shown without a reference prefix
//
// Example output for a best match at 0.65 with one related answer at 0.62:
//
//	[reference: How do I reset my WiFi password?]
//
//	Ask IT desk
//
//	Related information:
//	- See portal
package answer
