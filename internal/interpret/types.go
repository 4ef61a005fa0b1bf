package interpret

// Rating is the consumer-facing grade of a single metric or of the whole
// connection.
type Rating string

const (
	Poor          Rating = "Poor"
	Fair          Rating = "Fair"
	Good          Rating = "Good"
	Excellent     Rating = "Excellent"
	NotApplicable Rating = "N/A"
)

// rank orders ratings from worst to best. NotApplicable has no rank.
func (r Rating) rank() (int, bool) {
	switch r {
	case Poor:
		return 0, true
	case Fair:
		return 1, true
	case Good:
		return 2, true
	case Excellent:
		return 3, true
	}
	return 0, false
}

// Worse reports whether r is strictly worse than other. Ratings without a
// rank never compare as worse.
func (r Rating) Worse(other Rating) bool {
	a, ok := r.rank()
	if !ok {
		return false
	}
	b, ok := other.rank()
	if !ok {
		return false
	}
	return a < b
}

// Metric names one of the measured quantities.
type Metric string

const (
	Download Metric = "download"
	Upload   Metric = "upload"
	Ping     Metric = "ping"

	// NoLimit is reported as the limiting factor when no metric matches the
	// overall rating.
	NoLimit Metric = "none"
)

// metricOrder is the iteration order used for limiting factor detection.
var metricOrder = []Metric{Download, Upload, Ping}

// Label returns the title-cased metric name, or "" for NoLimit.
func (m Metric) Label() string {
	switch m {
	case Download:
		return "Download"
	case Upload:
		return "Upload"
	case Ping:
		return "Ping"
	}
	return ""
}

// Flag is a capability verdict symbol.
type Flag string

const (
	Yes     Flag = "✓"
	No      Flag = "✗"
	Warn    Flag = "⚠"
	Unknown Flag = "?"
)

// Measurement is one completed speed test. Throughput is in Mbps, ping in
// ms and data usage in MB. Upload of 0 means the upload test was skipped.
type Measurement struct {
	Download     float64 `json:"download"`
	Upload       float64 `json:"upload"`
	Ping         float64 `json:"ping"`
	DownloadData float64 `json:"downloadData"`
	UploadData   float64 `json:"uploadData"`
}

func (m Measurement) value(metric Metric) float64 {
	switch metric {
	case Download:
		return m.Download
	case Upload:
		return m.Upload
	case Ping:
		return m.Ping
	}
	return 0
}

// Ratings holds the per-metric grades of one measurement.
type Ratings struct {
	Download Rating `json:"download"`
	Upload   Rating `json:"upload"`
	Ping     Rating `json:"ping"`
}

func (r Ratings) get(metric Metric) Rating {
	switch metric {
	case Download:
		return r.Download
	case Upload:
		return r.Upload
	case Ping:
		return r.Ping
	}
	return NotApplicable
}

// MetricResult explains the grade of a single metric.
type MetricResult struct {
	Value       float64 `json:"value"`
	Rating      Rating  `json:"rating"`
	Explanation string  `json:"explanation"`
	Reason      string  `json:"reason"`
}

// Metrics groups the per-metric results.
type Metrics struct {
	Download MetricResult `json:"download"`
	Upload   MetricResult `json:"upload"`
	Ping     MetricResult `json:"ping"`
}

// Capabilities estimates what the connection is good for.
type Capabilities struct {
	Streaming4K       Flag   `json:"streaming4K"`
	StreamingHD       Flag   `json:"streamingHD"`
	VideoCallsHD      Flag   `json:"videoCallsHD"`
	VideoCallsSD      Flag   `json:"videoCallsSD"`
	Gaming            Flag   `json:"gaming"`
	CompetitiveGaming Flag   `json:"competitiveGaming"`
	WebBrowsing       Flag   `json:"webBrowsing"`
	CloudSync         Flag   `json:"cloudSync"`
	DownloadTime1GB   string `json:"downloadTime1GB"`
	DownloadTime100MB string `json:"downloadTime100MB"`
}

// Result is the full interpretation of a measurement.
type Result struct {
	Summary             string       `json:"summary"`
	OverallRating       Rating       `json:"overallRating"`
	LimitingFactor      Metric       `json:"limitingFactor"`
	LimitingFactorLabel string       `json:"limitingFactorLabel"`
	RatingExplanation   string       `json:"ratingExplanation"`
	RealWorldImpact     string       `json:"realWorldImpact"`
	Advice              string       `json:"advice"`
	Capabilities        Capabilities `json:"capabilities"`
	Metrics             Metrics      `json:"metrics"`
	Criteria            Criteria     `json:"criteria"`
	Raw                 Measurement  `json:"raw"`
}
