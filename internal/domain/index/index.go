package index

// State is the lifecycle position of an index identifier.
type State string

const (
	// Unmapped means no mapping record exists.
	Unmapped State = "unmapped"
	// Mapped means a mapping record exists but no physical index.
	Mapped State = "mapped"
	// Active means the physical index exists in the engine.
	Active State = "active"
	// Removed means the physical index and mapping were deleted.
	Removed State = "removed"
)

// Health is the engine cluster color translated to a tri-state.
type Health string

const (
	// Healthy maps green.
	Healthy Health = "healthy"
	// Degraded maps yellow.
	Degraded Health = "degraded"
	// Critical maps red and anything unknown.
	Critical Health = "critical"
)

// HealthFromColor converts an engine color string.
func HealthFromColor(color string) Health {
	switch color {
	case "green":
		return Healthy
	case "yellow":
		return Degraded
	default:
		return Critical
	}
}

// CatalogEntry is one physical index as reported by the engine.
type CatalogEntry struct {
	Name         string `json:"name"`
	Health       Health `json:"health"`
	DocCount     int64  `json:"doc_count"`
	DeletedCount int64  `json:"deleted_count"`
	SizeBytes    int64  `json:"size_bytes"`
	Primaries    int    `json:"primaries"`
	Replicas     int    `json:"replicas"`
}

// Summary describes one index visible to an API key.
type Summary struct {
	Index string `json:"index"`
	Name  string `json:"name,omitempty"`
	Tag   string `json:"tag,omitempty"`
	State State  `json:"state"`
}
