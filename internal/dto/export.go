package dto

import "time"

// Export delivery modes.
const (
	DeliveryInline = "inline"
	DeliveryLink   = "link"
)

// ExportQuery selects the export format and how the file is delivered.
type ExportQuery struct {
	Format   string `form:"format"`
	Delivery string `form:"delivery"`
}

// ExportFile is a rendered export ready to stream to the client.
type ExportFile struct {
	Filename    string
	ContentType string
	Data        []byte
}

// ExportLink points at a stored export reachable through a signed URL.
type ExportLink struct {
	ID        string    `json:"id"`
	Filename  string    `json:"filename"`
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expiresAt"`
}
