package api

const (
	CodeValidation         = "VALIDATION_ERROR"
	CodeNotFound           = "NOT_FOUND"
	CodePayloadTooLarge    = "PAYLOAD_TOO_LARGE"
	CodeLabelUnreadable    = "LABEL_UNREADABLE"
	CodeStorageUnavailable = "STORAGE_UNAVAILABLE"
	CodeInternal           = "INTERNAL_ERROR"
)

type Sample struct {
	ID        int64  `json:"sample_id"`
	BaseName  string `json:"base_name"`
	ImagePath string `json:"image_path"`
	LabelPath string `json:"label_path"`
	ImageURL  string `json:"image_url"`
	LabelURL  string `json:"label_url"`
	CreatedAt string `json:"created_at"`
}

// Label polygon vertices serialize as [x, y] pairs.
type Label struct {
	ClassID int          `json:"class_id"`
	Polygon [][2]float64 `json:"polygon"`
}

type SampleDetail struct {
	Sample
	Labels []Label `json:"labels"`
}

type SampleList struct {
	Page         int      `json:"page"`
	Size         int      `json:"size"`
	TotalSamples int64    `json:"total_samples"`
	TotalPages   int64    `json:"total_pages"`
	Samples      []Sample `json:"samples"`
}

type SampleCreated struct {
	Message  string `json:"message"`
	SampleID int64  `json:"sample_id"`
}

type Message struct {
	Message string `json:"message"`
}

type Error struct {
	Error   string `json:"error"`
	Code    string `json:"code"`
	Message string `json:"message,omitempty"`
}

type Health struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}
