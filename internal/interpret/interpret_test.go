package interpret

import (
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInterpret_ExcellentConnection(t *testing.T) {
	res := Interpret(Measurement{Download: 150, Upload: 25, Ping: 10})

	assert.Equal(t, Excellent, res.OverallRating)
	assert.Equal(t, NoLimit, res.LimitingFactor)
	assert.Equal(t, "", res.LimitingFactorLabel)
	assert.Equal(t, "Your overall rating is Excellent based on the combined performance of all metrics.", res.RatingExplanation)
	assert.True(t, strings.HasPrefix(res.Advice, "**Your connection is performing well!**"))
	for name, f := range flags(res.Capabilities) {
		assert.Equal(t, Yes, f, name)
	}
}

func TestInterpret_SlowDownloadNoUpload(t *testing.T) {
	res := Interpret(Measurement{Download: 5, Upload: 0, Ping: 150})

	assert.Equal(t, Poor, res.Metrics.Download.Rating)
	assert.Equal(t, NotApplicable, res.Metrics.Upload.Rating)
	assert.Equal(t, Poor, res.Metrics.Ping.Rating)
	assert.Equal(t, Poor, res.OverallRating)
	assert.Equal(t, Download, res.LimitingFactor)
	assert.Equal(t, "Download", res.LimitingFactorLabel)
	assert.Equal(t,
		"Your overall rating is Poor because your Download speed of 5.00 Mbps is the limiting factor. This is below the minimum threshold for reliable HD streaming.",
		res.RatingExplanation)
	assert.Contains(t, res.Summary, "(upload test not available)")
	assert.Equal(t, notMeasuredExplanation, res.Metrics.Upload.Explanation)
}

func TestInterpret_FairConnection(t *testing.T) {
	res := Interpret(Measurement{Download: 15, Upload: 5, Ping: 60})

	assert.Equal(t, Fair, res.Metrics.Download.Rating)
	assert.Equal(t, Fair, res.Metrics.Upload.Rating)
	assert.Equal(t, Fair, res.Metrics.Ping.Rating)
	assert.Equal(t, Fair, res.OverallRating)
	assert.Equal(t, Download, res.LimitingFactor)
}

func TestInterpret_PingLimits(t *testing.T) {
	res := Interpret(Measurement{Download: 200, Upload: 50, Ping: 45})

	assert.Equal(t, Good, res.OverallRating)
	assert.Equal(t, Ping, res.LimitingFactor)
	assert.Equal(t,
		"Your overall rating is Good because your Ping of 45 ms is the limiting factor. This is acceptable for most uses but competitive gaming may feel slightly delayed.",
		res.RatingExplanation)
	assert.True(t, strings.HasPrefix(res.Advice, "**Immediate Actions:**\n• Restart your router"))
}

func TestInterpret_UploadLimits(t *testing.T) {
	res := Interpret(Measurement{Download: 120, Upload: 2, Ping: 15})

	assert.Equal(t, Poor, res.OverallRating)
	assert.Equal(t, Upload, res.LimitingFactor)
	assert.Contains(t, res.RatingExplanation, "Upload speed of 2.00 Mbps is the limiting factor. This will cause problems with video calls and cloud backups.")
	assert.Contains(t, res.Advice, "Most plans have lower upload than download")
}

func TestInterpret_ZeroDownloadHasNoTransferEstimate(t *testing.T) {
	res := Interpret(Measurement{Download: 0, Upload: 10, Ping: 30})

	assert.Equal(t, "N/A", res.Capabilities.DownloadTime1GB)
	assert.Equal(t, "N/A", res.Capabilities.DownloadTime100MB)
}

func TestInterpret_AllZeroIsFullyPopulated(t *testing.T) {
	res := Interpret(Measurement{})

	assert.NotEmpty(t, res.Summary)
	assert.NotEmpty(t, res.RatingExplanation)
	assert.NotEmpty(t, res.RealWorldImpact)
	assert.NotEmpty(t, res.Advice)
	assert.NotEmpty(t, res.Capabilities.DownloadTime1GB)
	for _, mr := range []MetricResult{res.Metrics.Download, res.Metrics.Upload, res.Metrics.Ping} {
		assert.NotEmpty(t, mr.Rating)
		assert.NotEmpty(t, mr.Explanation)
		assert.NotEmpty(t, mr.Reason)
	}
	assert.Equal(t, Poor, res.OverallRating)
	assert.Equal(t, Download, res.LimitingFactor)
	assert.Equal(t, DefaultCriteria(), res.Criteria)
}

func TestInterpret_CoercesNonFinite(t *testing.T) {
	in := Measurement{Download: math.NaN(), Upload: math.Inf(1), Ping: -3, DownloadData: math.Inf(-1)}
	res := Interpret(in)

	assert.Equal(t, Measurement{}, res.Raw)
	assert.True(t, math.IsNaN(in.Download), "input must not be mutated")
}

func TestInterpret_Deterministic(t *testing.T) {
	in := Measurement{Download: 42.5, Upload: 7.25, Ping: 33, DownloadData: 120.4}
	assert.Equal(t, Interpret(in), Interpret(in))
}

func TestInterpretRaw_LooseTypes(t *testing.T) {
	res := InterpretRaw(map[string]any{
		"download": "150",
		"upload":   25,
		"ping":     nil,
		"bogus":    true,
	})

	require.Equal(t, Measurement{Download: 150, Upload: 25}, res.Raw)
	assert.Equal(t, Excellent, res.OverallRating)
}

func TestSummary_Text(t *testing.T) {
	got := Summary(Measurement{Download: 87.456, Upload: 12.3, Ping: 23.6, DownloadData: 45.678}, Good)
	assert.Equal(t,
		"This speed test achieved a download speed of 87.46 Mbps, upload speed of 12.30 Mbps, ping of 24 ms. Data used: 45.68 MB down. Your connection is rated as Good.",
		got)
}

func TestRealWorldImpact_Lines(t *testing.T) {
	lines := strings.Split(RealWorldImpact(Measurement{Download: 30, Upload: 12, Ping: 40}), "\n")

	require.Len(t, lines, 5)
	assert.Equal(t, "⚠ Acceptable for casual gaming, may have occasional lag", lines[0])
	assert.Equal(t, "✓ Smooth 4K and HD video streaming", lines[1])
	assert.Equal(t, "✓ Crystal clear HD video calls", lines[2])
	assert.Equal(t, "✓ Fast and responsive web browsing", lines[3])
	assert.Equal(t, "⚠ Cloud syncing works but larger files take time", lines[4])
}

func TestExplanationTables_CoverEveryRating(t *testing.T) {
	for _, m := range metricOrder {
		for _, r := range []Rating{Poor, Fair, Good, Excellent} {
			assert.NotEmpty(t, Explanation(m, r), "%s/%s explanation", m, r)
			assert.NotEmpty(t, Reason(m, 1, r), "%s/%s reason", m, r)
		}
	}
}

func TestReason_FormatsValue(t *testing.T) {
	assert.Equal(t, "At 12.35 Mbps, you're between 10-25 Mbps which is considered fair.", Reason(Download, 12.346, Fair))
	assert.Equal(t, "At 101 ms, you exceed the 100 ms threshold for acceptable latency.", Reason(Ping, 101.2, Poor))
}
