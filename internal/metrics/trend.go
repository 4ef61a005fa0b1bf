package metrics

import (
	"sync"

	"github.com/VividCortex/ewma"
	"github.com/bilal/speedcheck/internal/interpret"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var trendGauge = promauto.NewGaugeVec(prometheus.GaugeOpts{
	Name: "speedcheck_trend",
	Help: "Exponentially weighted moving average of captured measurements",
}, []string{"metric"})

// Snapshot is the current moving average of each metric. Averages read 0
// until enough samples have been seen to warm up. Upload counts only tests
// that measured it, so it warms up separately.
type Snapshot struct {
	Download      float64 `json:"download"`
	Upload        float64 `json:"upload"`
	Ping          float64 `json:"ping"`
	Samples       int     `json:"samples"`
	UploadSamples int     `json:"upload_samples"`
	Warm          bool    `json:"warm"`
	UploadWarm    bool    `json:"upload_warm"`
}

// Trend keeps moving averages across captured sessions.
type Trend struct {
	mu       sync.Mutex
	download ewma.MovingAverage
	upload   ewma.MovingAverage
	ping     ewma.MovingAverage

	samples       int
	uploadSamples int
}

// NewTrend averages over roughly age samples.
func NewTrend(age float64) *Trend {
	return &Trend{
		download: ewma.NewMovingAverage(age),
		upload:   ewma.NewMovingAverage(age),
		ping:     ewma.NewMovingAverage(age),
	}
}

// Add folds a normalized measurement into the averages. Skipped upload tests
// do not drag the upload average down.
func (t *Trend) Add(m interpret.Measurement) Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.download.Add(m.Download)
	t.ping.Add(m.Ping)
	if m.Upload > 0 {
		t.upload.Add(m.Upload)
		t.uploadSamples++
	}
	t.samples++

	s := t.snapshotLocked()
	trendGauge.WithLabelValues(string(interpret.Download)).Set(s.Download)
	trendGauge.WithLabelValues(string(interpret.Upload)).Set(s.Upload)
	trendGauge.WithLabelValues(string(interpret.Ping)).Set(s.Ping)
	return s
}

func (t *Trend) Snapshot() Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.snapshotLocked()
}

func (t *Trend) snapshotLocked() Snapshot {
	return Snapshot{
		Download:      t.download.Value(),
		Upload:        t.upload.Value(),
		Ping:          t.ping.Value(),
		Samples:       t.samples,
		UploadSamples: t.uploadSamples,
		Warm:          warm(t.samples),
		UploadWarm:    warm(t.uploadSamples),
	}
}

func warm(n int) bool {
	return n > int(ewma.WARMUP_SAMPLES)
}
