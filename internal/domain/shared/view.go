package shared

import "context"

// ViewInvoices is the invoice listing view, stale after any invoice mutation
const ViewInvoices = "/dashboard/invoices"

// ViewInvalidator marks a dashboard view stale after a successful mutation.
// Invalidation is fire-and-forget: implementations log their own failures
// and never fail the mutation that triggered them.
type ViewInvalidator interface {
	Invalidate(ctx context.Context, view string)
}

// ViewInvalidatorFunc adapts a function to ViewInvalidator
type ViewInvalidatorFunc func(ctx context.Context, view string)

// Invalidate calls f(ctx, view)
func (f ViewInvalidatorFunc) Invalidate(ctx context.Context, view string) {
	f(ctx, view)
}

// ViewCache holds rendered view data keyed per view. Invalidating a view
// drops every key cached under it.
type ViewCache interface {
	ViewInvalidator
	Get(ctx context.Context, view, key string) ([]byte, bool)
	Set(ctx context.Context, view, key string, value []byte)
}
