package interpret

import (
	"fmt"
	"math"
)

const (
	oneGBInMB     = 1024
	hundredMBInMB = 100
)

// CalculateCapabilities derives the capability flags and transfer estimates
// for a normalized measurement.
func CalculateCapabilities(m Measurement) Capabilities {
	mbPerSec := m.Download / 8

	return Capabilities{
		Streaming4K:       check(m.Download >= 25, No),
		StreamingHD:       check(m.Download >= 10, No),
		VideoCallsHD:      needsUpload(m, m.Upload >= 5 && m.Ping <= 100, No),
		VideoCallsSD:      needsUpload(m, m.Upload >= 1.5 && m.Ping <= 150, Warn),
		Gaming:            gaming(m.Ping),
		CompetitiveGaming: check(m.Ping <= 20, No),
		WebBrowsing:       check(m.Download >= 5, Warn),
		CloudSync:         needsUpload(m, m.Download >= 10 && m.Upload >= 5, Warn),
		DownloadTime1GB:   FormatDuration(transferSeconds(oneGBInMB, mbPerSec)),
		DownloadTime100MB: FormatDuration(transferSeconds(hundredMBInMB, mbPerSec)),
	}
}

func check(ok bool, otherwise Flag) Flag {
	if ok {
		return Yes
	}
	return otherwise
}

func needsUpload(m Measurement, ok bool, otherwise Flag) Flag {
	if m.Upload <= 0 {
		return Unknown
	}
	return check(ok, otherwise)
}

func gaming(ping float64) Flag {
	switch {
	case ping <= 50:
		return Yes
	case ping <= 100:
		return Warn
	}
	return No
}

func transferSeconds(sizeMB, mbPerSec float64) float64 {
	if !(mbPerSec > 0) || math.IsInf(mbPerSec, 0) {
		return math.Inf(1)
	}
	return sizeMB / mbPerSec
}

// FormatDuration renders a number of seconds for people. Infinite or NaN
// durations are "N/A".
func FormatDuration(seconds float64) string {
	if math.IsInf(seconds, 0) || math.IsNaN(seconds) {
		return "N/A"
	}

	switch {
	case seconds < 1:
		return "< 1 second"
	case seconds < 60:
		return fmt.Sprintf("%d seconds", int(math.Round(seconds)))
	case seconds < 3600:
		minutes := int(seconds / 60)
		secs := int(math.Round(math.Mod(seconds, 60)))
		if secs == 60 {
			minutes, secs = minutes+1, 0
		}
		if minutes == 60 {
			return "1 hr"
		}
		if secs > 0 {
			return fmt.Sprintf("%d min %d sec", minutes, secs)
		}
		return fmt.Sprintf("%d min", minutes)
	}

	hours := int(seconds / 3600)
	minutes := int(math.Round(math.Mod(seconds, 3600) / 60))
	if minutes == 60 {
		hours, minutes = hours+1, 0
	}
	if minutes > 0 {
		return fmt.Sprintf("%d hr %d min", hours, minutes)
	}
	return fmt.Sprintf("%d hr", hours)
}
