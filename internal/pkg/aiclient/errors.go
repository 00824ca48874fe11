package aiclient

import "fmt"

// UpstreamError is returned when the generation endpoint answers with a non-2xx status
type UpstreamError struct {
	Status  int
	Details string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("ai upstream returned %d: %s", e.Status, e.Details)
}

// ParseError is returned when generated text is not a JSON object matching the roadmap schema
type ParseError struct {
	Raw    string
	Reason string
}

func (e *ParseError) Error() string {
	return "ai response could not be parsed: " + e.Reason
}
