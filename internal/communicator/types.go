package communicator

import (
	"time"

	"github.com/bilal/speedcheck/internal/capture"
	"github.com/bilal/speedcheck/internal/interpret"
)

// Report is the JSON payload published for every captured session.
type Report struct {
	Source         string                 `json:"source"`
	SessionID      string                 `json:"session_id"`
	Timestamp      time.Time              `json:"timestamp"`
	DownloadMbps   float64                `json:"download_mbps"`
	UploadMbps     float64                `json:"upload_mbps,omitempty"`
	PingMs         float64                `json:"ping_ms"`
	DownloadDataMB float64                `json:"download_data_mb,omitempty"`
	UploadDataMB   float64                `json:"upload_data_mb,omitempty"`
	OverallRating  interpret.Rating       `json:"overall_rating"`
	LimitingFactor interpret.Metric       `json:"limiting_factor"`
	Capabilities   interpret.Capabilities `json:"capabilities"`
	CorrelationID  string                 `json:"correlation_id,omitempty"`
}

// NewReport flattens a capture into a publishable report.
func NewReport(source string, c capture.Capture) Report {
	return Report{
		Source:         source,
		SessionID:      c.SessionID,
		Timestamp:      c.CapturedAt,
		DownloadMbps:   c.Raw.Download,
		UploadMbps:     c.Raw.Upload,
		PingMs:         c.Raw.Ping,
		DownloadDataMB: c.Raw.DownloadData,
		UploadDataMB:   c.Raw.UploadData,
		OverallRating:  c.Result.OverallRating,
		LimitingFactor: c.Result.LimitingFactor,
		Capabilities:   c.Result.Capabilities,
	}
}
