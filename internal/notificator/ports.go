package notificator

import "context"

type Notificator interface {
	// Notify sends a failure report to the operator
	Notify(ctx context.Context, err error, details string) error
}
