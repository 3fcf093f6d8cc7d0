package middleware

import "context"

type contextKey string

// ContextKeyOwnerAddress carries the authenticated wallet address.
const ContextKeyOwnerAddress contextKey = "owner_address"

func OwnerAddressFromContext(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(ContextKeyOwnerAddress).(string)
	return v, ok
}
