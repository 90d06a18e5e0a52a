package webhook

import "context"

type deliveryIDKey struct{}

// WithDeliveryID returns a context carrying the delivery ID the Handler
// assigned to a request.
func WithDeliveryID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, deliveryIDKey{}, id)
}

// DeliveryID returns the delivery ID stored in ctx, or "" outside a webhook
// request.
func DeliveryID(ctx context.Context) string {
	id, _ := ctx.Value(deliveryIDKey{}).(string)
	return id
}
