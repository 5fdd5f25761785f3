package supplier

import "context"

type approvalKey struct{}

// WithApproval marks ctx as carrying a human approval for orders above the threshold.
func WithApproval(ctx context.Context) context.Context {
	return context.WithValue(ctx, approvalKey{}, true)
}

// IsApproved reports whether ctx carries a human approval.
func IsApproved(ctx context.Context) bool {
	v, _ := ctx.Value(approvalKey{}).(bool)
	return v
}
