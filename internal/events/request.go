package events

// EntityRequest is the entity type of every request event.
const EntityRequest = "request"

// Request event types, one per lifecycle transition.
const (
	EventRequestCreated   = "request.created"
	EventRequestApproved  = "request.approved"
	EventRequestDenied    = "request.denied"
	EventRequestFailed    = "request.failed"
	EventRequestRetried   = "request.retried"
	EventRequestAvailable = "request.available"
	EventRequestRemoved   = "request.removed"
)

// RequestTypes lists every request event type.
var RequestTypes = []string{
	EventRequestCreated, EventRequestApproved, EventRequestDenied, EventRequestFailed,
	EventRequestRetried, EventRequestAvailable, EventRequestRemoved,
}

// RequestInfo identifies the request an event is about.
type RequestInfo struct {
	RequestID   string `json:"request_id"`
	MediaType   string `json:"media_type"` // "movie" or "episode"
	Title       string `json:"title"`
	RequestedBy string `json:"requested_by"`
	Seasons     []int  `json:"seasons,omitempty"`
	From        string `json:"from,omitempty"`
	To          string `json:"to"`
}

// Info returns the request details of the event.
func (r RequestInfo) Info() RequestInfo { return r }

// RequestEvent is implemented by every request event.
type RequestEvent interface {
	Event
	Info() RequestInfo
}

// RequestCreated is emitted when a request is persisted.
type RequestCreated struct {
	BaseEvent
	RequestInfo
	AutoApproved   bool   `json:"auto_approved"`
	ApprovalRuleID *int64 `json:"approval_rule_id,omitempty"`
}

// RequestApproved is emitted when a request is submitted to Radarr or Sonarr.
type RequestApproved struct {
	BaseEvent
	RequestInfo
	ApprovedBy string `json:"approved_by"` // admin id, or "rule:<id>" for auto-approval
	ExternalID *int64 `json:"external_id,omitempty"`
}

// RequestDenied is emitted when an admin denies a request.
type RequestDenied struct {
	BaseEvent
	RequestInfo
	DeniedBy string `json:"denied_by"`
	Reason   string `json:"reason,omitempty"`
}

// RequestFailed is emitted when submission fails.
type RequestFailed struct {
	BaseEvent
	RequestInfo
	Error string `json:"error"`
}

// RequestRetried is emitted when an admin moves a failed request back to pending.
type RequestRetried struct {
	BaseEvent
	RequestInfo
	RetriedBy string `json:"retried_by"`
}

// RequestAvailable is emitted when the requested media has files.
type RequestAvailable struct {
	BaseEvent
	RequestInfo
}

// RequestRemoved is emitted when a request is withdrawn.
type RequestRemoved struct {
	BaseEvent
	RequestInfo
	RemovedBy string `json:"removed_by"`
}
