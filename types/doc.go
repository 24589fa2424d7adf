// Package types is a super-package that contains leaf code shared by the
// worker core and its tools: payload encoding helpers, the wire message
// definitions, worker identity, and dialing.
//
// This package exists to avoid import cycles; as a general rule, packages in
// here only import their own children or siblings, never the worker core.
package types
