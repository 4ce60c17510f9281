// Package locator resolves resource URIs to byte streams. A fixed-priority
// chain of locator strategies is consulted per URI: the first strategy
// accepting the URI handles it alone, with no fallback probing across
// strategies.
package locator

import (
	"context"
	"fmt"
	"io"
)

// Locator is one resource resolution strategy.
type Locator interface {
	// Accept reports whether this locator handles the given URI.
	Accept(uri string) bool
	// Locate resolves the URI to content. It returns *NotFoundError when
	// the URI is well-formed but no resource exists behind it.
	Locate(ctx context.Context, uri string) (io.ReadCloser, error)
}

// NotFoundError reports a resource that no locator could resolve. It is the
// recoverable per-resource failure: the dispatcher may skip it when
// ignore_missing_resources is set.
type NotFoundError struct {
	URI string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("resource not found: %s", e.URI)
}

// Chain tries locators in registration order and delegates to the first
// one whose Accept matches. Acceptance picks the strategy; a failure inside
// the chosen strategy is never retried against the next one.
type Chain struct {
	locators []Locator
}

// NewChain builds a chain over the given locators, highest priority first.
func NewChain(locators ...Locator) *Chain {
	return &Chain{locators: locators}
}

// Locate resolves a URI through the chain. A URI no locator accepts yields
// *NotFoundError.
func (c *Chain) Locate(ctx context.Context, uri string) (io.ReadCloser, error) {
	for _, l := range c.locators {
		if l.Accept(uri) {
			return l.Locate(ctx, uri)
		}
	}
	return nil, &NotFoundError{URI: uri}
}
