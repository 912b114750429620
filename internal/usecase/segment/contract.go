package segment

import "context"

// Completer issues one synchronous completion round-trip and returns the
// response text.
type Completer interface {
	Complete(ctx context.Context, system, user string) (string, error)
}
