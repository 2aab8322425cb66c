package metadata

import "context"

// Record is the provider-neutral slice of series metadata used by the
// template engine.
type Record struct {
	ID           int64
	Name         string
	Year         int
	SeasonNumber int
	Kind         string
}

// Provider fetches series metadata by provider-native id. Implementations
// return (nil, nil) when the series is unknown or the provider is not
// configured, so callers can treat metadata as strictly optional.
type Provider interface {
	Series(ctx context.Context, id int64) (*Record, error)
}
