package notify

import "context"

// Channel is the pluggable outbound transport. Implementations must treat
// Send as at-least-once: the dispatcher may redeliver a message whose
// acknowledgement was lost.
type Channel interface {
	// Name labels the channel in metrics and logs.
	Name() string

	// Send delivers one message. The context carries the per-attempt timeout;
	// implementations must respect cancellation.
	Send(ctx context.Context, recipient, subject, body string) error
}
