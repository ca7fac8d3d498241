package annex

import (
	"github.com/jward/annex/internal/extract"
	"github.com/jward/annex/internal/javasrc"
	"github.com/jward/annex/internal/resolve"
	"github.com/jward/annex/internal/store"
)

// Public type aliases for internal types that surface in the Engine API.
// These are Go type aliases (=), identical to the internal types at
// compile time, so callers can implement Resolver or inspect diagnostics
// without reaching into internal packages.

type Resolver = resolve.Resolver
type Unit = javasrc.Unit
type Diagnostic = extract.Diagnostic
type Signature = store.Signature
