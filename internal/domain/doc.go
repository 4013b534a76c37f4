// Package domain defines the core types for the InnovateHub campaign mailer.
//
// Types in this package are pure value objects with no behavior beyond
// validation helpers, no network dependencies, and no HTTP concerns. They are
// the shared language between the API, the dispatcher, the renderer, and the
// delivery adapters.
//
// Rules for this package:
//   - No imports from other internal/ packages
//   - No *redis.Client, no http.Request, no context.Context in struct fields
//   - JSON tags are allowed (they're metadata, not behavior)
//   - Constants and enums belong here
package domain
