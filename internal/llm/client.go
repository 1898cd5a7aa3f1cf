// Package llm abstracts the text-generation backend used to compose
// document drafts, so handlers can run against a mock in tests and
// without an API key in development.
package llm

import "context"

// Client generates document text from a system and user prompt.
type Client interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

// Mock is a canned-response Client for tests and local development.
type Mock struct {
	Response string
	Err      error
}

func (m Mock) Complete(_ context.Context, _, _ string) (string, error) {
	return m.Response, m.Err
}
