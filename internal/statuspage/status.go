package statuspage

// Status is a component status as reported by the status-page API.
type Status string

const (
	StatusOperational      Status = "operational"
	StatusDegraded         Status = "degraded_performance"
	StatusPartialOutage    Status = "partial_outage"
	StatusMajorOutage      Status = "major_outage"
	StatusUnderMaintenance Status = "under_maintenance"
	StatusUnknown          Status = "unknown"
)

// KnownStatuses lists every status value the API is expected to report.
var KnownStatuses = []Status{
	StatusOperational,
	StatusDegraded,
	StatusPartialOutage,
	StatusMajorOutage,
	StatusUnderMaintenance,
	StatusUnknown,
}

// ParseStatus normalizes a raw status string. Unrecognized values map to StatusUnknown.
func ParseStatus(raw string) Status {
	switch Status(raw) {
	case StatusOperational, StatusDegraded, StatusPartialOutage, StatusMajorOutage, StatusUnderMaintenance:
		return Status(raw)
	default:
		return StatusUnknown
	}
}

// IsOperational reports whether the status means the component is healthy.
func (s Status) IsOperational() bool {
	return s == StatusOperational
}

// Component is a single entry from the status-page components list.
// Groups are themselves components with IsGroup set.
type Component struct {
	ID      string
	Name    string
	Status  Status
	GroupID string
	IsGroup bool
}
