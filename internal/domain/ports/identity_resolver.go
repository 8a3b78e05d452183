package ports

import "context"

// UnknownName is returned when a display name cannot be resolved.
const UnknownName = "Unknown"

// IdentityResolver looks up the display name behind an external player id.
// Implementations never fail; they fall back to UnknownName.
type IdentityResolver interface {
	Resolve(ctx context.Context, externalID string) string
}
