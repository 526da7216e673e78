// Package domain defines the core business types for the AdLens dashboard.
//
// Types in this package are value objects with no database dependencies and
// no HTTP concerns. They are the shared language between handlers, services,
// platform connectors and repositories.
//
// Rules for this package:
//   - No imports from other internal/ packages
//   - No *sql.DB, no http.Request, no context.Context in struct fields
//   - JSON/DB tags are allowed (they're metadata, not behavior)
//   - Validation and derivation methods are allowed (pure functions on the type)
//   - Constants and enums belong here
package domain
