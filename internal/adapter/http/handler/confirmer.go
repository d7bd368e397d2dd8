package handler

import (
	"context"
)

type confirmedKey struct{}

// withConfirmation records the caller's answer for RequestConfirmer.
func withConfirmation(ctx context.Context, confirmed bool) context.Context {
	return context.WithValue(ctx, confirmedKey{}, confirmed)
}

// RequestConfirmer answers the workflow prompt with the "confirmed" flag of
// the request being served. The browser asks the user before posting.
type RequestConfirmer struct{}

// Confirm implements usecase.Confirmer.
func (RequestConfirmer) Confirm(ctx context.Context, prompt string) (bool, error) {
	confirmed, _ := ctx.Value(confirmedKey{}).(bool)
	return confirmed, nil
}
