package interpret

import (
	"fmt"
	"strconv"
	"strings"
)

func fixed(v float64, places int) string {
	return strconv.FormatFloat(v, 'f', places, 64)
}

// Summary is the one-paragraph description of a test.
func Summary(m Measurement, overall Rating) string {
	uploadText := " (upload test not available), "
	if m.Upload > 0 {
		uploadText = ", upload speed of " + fixed(m.Upload, 2) + " Mbps, "
	}
	dataLine := ""
	if m.DownloadData > 0 {
		dataLine = " Data used: " + fixed(m.DownloadData, 2) + " MB down."
	}
	return fmt.Sprintf("This speed test achieved a download speed of %s Mbps%sping of %s ms.%s Your connection is rated as %s.",
		fixed(m.Download, 2), uploadText, fixed(m.Ping, 0), dataLine, overall)
}

// RatingExplanation says why the connection got its overall grade.
func RatingExplanation(factor Metric, m Measurement, overall Rating) string {
	if factor == NoLimit || factor.Label() == "" {
		return fmt.Sprintf("Your overall rating is %s based on the combined performance of all metrics.", overall)
	}

	v := m.value(factor)
	var b strings.Builder
	fmt.Fprintf(&b, "Your overall rating is %s because your %s ", overall, factor.Label())

	switch factor {
	case Download:
		fmt.Fprintf(&b, "speed of %s Mbps is the limiting factor. ", fixed(v, 2))
		switch {
		case v < criteria.Download.Fair:
			b.WriteString("This is below the minimum threshold for reliable HD streaming.")
		case v < criteria.Download.Good:
			b.WriteString("This is adequate for basic web browsing but may struggle with HD video.")
		case v < criteria.Download.Excellent:
			b.WriteString("This is good for most activities but may not support multiple 4K streams.")
		}
	case Upload:
		fmt.Fprintf(&b, "speed of %s Mbps is the limiting factor. ", fixed(v, 2))
		switch {
		case v < criteria.Upload.Fair:
			b.WriteString("This will cause problems with video calls and cloud backups.")
		case v < criteria.Upload.Good:
			b.WriteString("This is adequate for basic tasks but may struggle with video calls.")
		case v < criteria.Upload.Excellent:
			b.WriteString("This is good for most activities but may limit HD video uploads.")
		}
	case Ping:
		fmt.Fprintf(&b, "of %s ms is the limiting factor. ", fixed(v, 0))
		switch {
		case v > criteria.Ping.Fair:
			b.WriteString("This high latency will cause noticeable delays in online gaming and video calls.")
		case v > criteria.Ping.Good:
			b.WriteString("This moderate latency may cause occasional delays in real-time applications.")
		case v > criteria.Ping.Excellent:
			b.WriteString("This is acceptable for most uses but competitive gaming may feel slightly delayed.")
		}
	}
	return b.String()
}

// RealWorldImpact lists, one per line, how everyday activities will behave.
func RealWorldImpact(m Measurement) string {
	impact := make([]string, 0, 5)

	switch {
	case m.Ping <= 20:
		impact = append(impact, "✓ Excellent for competitive online gaming")
	case m.Ping <= 50:
		impact = append(impact, "⚠ Acceptable for casual gaming, may have occasional lag")
	default:
		impact = append(impact, "✗ Not recommended for online gaming due to high latency")
	}

	switch {
	case m.Download >= 25:
		impact = append(impact, "✓ Smooth 4K and HD video streaming")
	case m.Download >= 10:
		impact = append(impact, "⚠ Can handle HD streaming, 4K may buffer")
	default:
		impact = append(impact, "✗ May experience buffering even with SD content")
	}

	switch {
	case m.Upload <= 0:
		impact = append(impact, "⚠ Video call quality cannot be determined without upload test")
	case m.Upload >= 10 && m.Ping <= 50:
		impact = append(impact, "✓ Crystal clear HD video calls")
	case m.Upload >= 3 && m.Ping <= 100:
		impact = append(impact, "⚠ Standard video calls work, HD may be choppy")
	default:
		impact = append(impact, "✗ Video calls will likely be poor quality or unstable")
	}

	switch {
	case m.Download >= 10 && m.Ping <= 100:
		impact = append(impact, "✓ Fast and responsive web browsing")
	case m.Download >= 3:
		impact = append(impact, "⚠ Basic web browsing works but slower than ideal")
	default:
		impact = append(impact, "✗ Web pages will load slowly")
	}

	switch {
	case m.Upload <= 0:
		impact = append(impact, "⚠ Cloud upload speed cannot be determined without upload test")
	case m.Download >= 100 && m.Upload >= 20:
		impact = append(impact, "✓ Quick cloud syncing and file transfers")
	case m.Download >= 25 && m.Upload >= 10:
		impact = append(impact, "⚠ Cloud syncing works but larger files take time")
	default:
		impact = append(impact, "✗ Cloud uploads and large downloads will be slow")
	}

	return strings.Join(impact, "\n")
}

var adviceBank = map[Metric][]string{
	Ping: {
		"**Immediate Actions:**",
		"• Restart your router and modem (unplug for 30 seconds)",
		"• Connect via Ethernet cable instead of Wi-Fi if possible",
		"• Check for interference from other wireless devices",
		"• Close bandwidth-heavy applications",
		"\n**If problems persist:**",
		"• Contact your ISP to check for line issues",
		"• Ask about upgrading to a lower-latency connection",
		"• Consider if distance from server is causing high ping",
	},
	Download: {
		"**Immediate Actions:**",
		"• Check if other devices are using your network",
		"• Pause any active downloads or streaming",
		"• Try connecting via Ethernet for more stable speeds",
		"• Test at different times - peak hours may be slower",
		"\n**Long-term Solutions:**",
		"• Consider upgrading your internet plan",
		"• Contact ISP if speeds are much lower than advertised",
		"• Upgrade your router if it's more than 3-4 years old",
	},
	Upload: {
		"**Immediate Actions:**",
		"• Check if cloud backups or syncing are running",
		"• Pause any file uploads or video calls",
		"• Use Ethernet connection for better upload stability",
		"\n**Long-term Solutions:**",
		"• Most plans have lower upload than download - this is normal",
		"• Consider a plan with higher upload if you frequently video call or upload",
		"• Business plans often have better upload speeds",
	},
	NoLimit: {
		"**Your connection is performing well!**",
		"• Continue monitoring periodically to ensure consistency",
		"• Keep your router firmware updated",
		"• Consider a wired connection for gaming or important work",
	},
}

// Advice returns the recommended actions for the limiting factor.
func Advice(factor Metric) string {
	lines, ok := adviceBank[factor]
	if !ok {
		lines = adviceBank[NoLimit]
	}
	return strings.Join(lines, "\n")
}

type tableKey struct {
	metric Metric
	rating Rating
}

var explanations = map[tableKey]string{
	{Download, Excellent}: "Your download speed is excellent! You can stream 4K content and download large files quickly.",
	{Download, Good}:      "Your download speed is good for most online activities including HD streaming.",
	{Download, Fair}:      "Your download speed is adequate for basic browsing but may struggle with HD video.",
	{Download, Poor}:      "Your download speed is below recommended levels and will cause slow loading times.",
	{Upload, Excellent}:   "Your upload speed is excellent! Perfect for video calls, livestreaming, and cloud backups.",
	{Upload, Good}:        "Your upload speed is good for video calls and uploading files.",
	{Upload, Fair}:        "Your upload speed is adequate for basic tasks but video calls may struggle.",
	{Upload, Poor}:        "Your upload speed is very low and will cause problems with video calls and uploads.",
	{Ping, Excellent}:     "Your ping is excellent! You'll have no noticeable delay in online interactions.",
	{Ping, Good}:          "Your ping is good. Most online activities will feel responsive.",
	{Ping, Fair}:          "Your ping is acceptable but you may notice delays in gaming or video calls.",
	{Ping, Poor}:          "Your ping is high. You'll experience noticeable delays and lag.",
}

// reason templates take the formatted metric value.
var reasons = map[tableKey]string{
	{Download, Excellent}: "At %s Mbps, you exceed the 100 Mbps threshold for excellent speeds.",
	{Download, Good}:      "At %s Mbps, you're above the 25 Mbps threshold for good speeds.",
	{Download, Fair}:      "At %s Mbps, you're between 10-25 Mbps which is considered fair.",
	{Download, Poor}:      "At %s Mbps, you're below the 10 Mbps minimum for fair speeds.",
	{Upload, Excellent}:   "At %s Mbps, you exceed the 20 Mbps threshold for excellent speeds.",
	{Upload, Good}:        "At %s Mbps, you're above the 10 Mbps threshold for good speeds.",
	{Upload, Fair}:        "At %s Mbps, you're between 3-10 Mbps which is considered fair.",
	{Upload, Poor}:        "At %s Mbps, you're below the 3 Mbps minimum for fair speeds.",
	{Ping, Excellent}:     "At %s ms, you're under the 20 ms threshold for excellent latency.",
	{Ping, Good}:          "At %s ms, you're between 20-50 ms which is good latency.",
	{Ping, Fair}:          "At %s ms, you're between 50-100 ms which is fair latency.",
	{Ping, Poor}:          "At %s ms, you exceed the 100 ms threshold for acceptable latency.",
}

const (
	notMeasuredExplanation = "Upload speed was not measured in this test."
	notMeasuredReason      = "Without an upload measurement, upload is left out of the overall rating."
)

// Explanation describes what a metric's grade means in practice.
func Explanation(metric Metric, rating Rating) string {
	if rating == NotApplicable {
		return notMeasuredExplanation
	}
	return explanations[tableKey{metric, rating}]
}

// Reason ties a metric's value to the threshold that produced its grade.
func Reason(metric Metric, value float64, rating Rating) string {
	if rating == NotApplicable {
		return notMeasuredReason
	}
	tmpl, ok := reasons[tableKey{metric, rating}]
	if !ok {
		return ""
	}
	places := 2
	if metric == Ping {
		places = 0
	}
	return fmt.Sprintf(tmpl, fixed(value, places))
}
