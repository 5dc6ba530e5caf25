// Package scope carries the tenant location of a request.
package scope

import "context"

type locationKey struct{}

// QueryParam is the query parameter that selects the location.
const QueryParam = "location_id"

func WithLocation(ctx context.Context, locationID string) context.Context {
	return context.WithValue(ctx, locationKey{}, locationID)
}

// LocationID returns the request's location, or "" when none is known.
func LocationID(ctx context.Context) string {
	id, _ := ctx.Value(locationKey{}).(string)
	return id
}
