package metrics

import "time"

type Recorder interface {
	IncCounter(name string, labels map[string]string)
	ObserveLatency(name string, duration time.Duration, labels map[string]string)
}

// Counter and latency names recorded by the bridge.
const (
	MessagesReceived    = "messages_received"
	MessagesRouted      = "messages_routed"
	MessagesDropped     = "messages_dropped"
	RequestsSent        = "requests_sent"
	OperationsEnqueued  = "operations_enqueued"
	OperationsDiscarded = "operations_discarded"
	Errors              = "errors"

	OperationLatency = "operation"
)

// Labels builds the label set shared by every bridge metric.
func Labels(domain, action string) map[string]string {
	return map[string]string{"domain": domain, "action": action}
}
