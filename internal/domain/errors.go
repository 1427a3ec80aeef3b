package domain

import "errors"

var (
	// ErrNestedTransaction is returned when DoTransaction is called from
	// within another transaction's admission phase on the same domain.
	ErrNestedTransaction = errors.New("domain: nested transaction")

	// ErrUnknownDomain is returned when looking up a domain name that was
	// never registered.
	ErrUnknownDomain = errors.New("domain: unknown domain")

	// ErrDuplicateDomain is returned when registering a domain under a
	// name that is already taken.
	ErrDuplicateDomain = errors.New("domain: duplicate domain")

	// ErrNotInputNode is returned when an input call targets a node that
	// does not accept external input.
	ErrNotInputNode = errors.New("domain: node does not accept input")
)
