package interpret

// Bands holds the lower bounds of the Fair, Good and Excellent grades for a
// throughput metric.
type Bands struct {
	Fair      float64 `json:"fair"`
	Good      float64 `json:"good"`
	Excellent float64 `json:"excellent"`
}

// LatencyBands holds the upper bounds of the Excellent, Good and Fair grades
// for ping. Anything above Fair is Poor.
type LatencyBands struct {
	Excellent float64 `json:"excellent"`
	Good      float64 `json:"good"`
	Fair      float64 `json:"fair"`
}

// Criteria is the threshold table every rating is derived from.
type Criteria struct {
	Download Bands        `json:"download"`
	Upload   Bands        `json:"upload"`
	Ping     LatencyBands `json:"ping"`
}

// DefaultCriteria returns the fixed grading thresholds.
func DefaultCriteria() Criteria {
	return Criteria{
		Download: Bands{Fair: 10, Good: 25, Excellent: 100},
		Upload:   Bands{Fair: 3, Good: 10, Excellent: 20},
		Ping:     LatencyBands{Excellent: 20, Good: 50, Fair: 100},
	}
}

var criteria = DefaultCriteria()

func rateThroughput(v float64, b Bands) Rating {
	switch {
	case v >= b.Excellent:
		return Excellent
	case v >= b.Good:
		return Good
	case v >= b.Fair:
		return Fair
	}
	return Poor
}

// RateDownload grades download throughput in Mbps.
func RateDownload(mbps float64) Rating {
	return rateThroughput(mbps, criteria.Download)
}

// RateUpload grades upload throughput in Mbps. Zero means the upload test was
// skipped and yields NotApplicable.
func RateUpload(mbps float64) Rating {
	if mbps == 0 {
		return NotApplicable
	}
	return rateThroughput(mbps, criteria.Upload)
}

// RatePing grades latency in ms; lower is better.
func RatePing(ms float64) Rating {
	switch {
	case ms <= criteria.Ping.Excellent:
		return Excellent
	case ms <= criteria.Ping.Good:
		return Good
	case ms <= criteria.Ping.Fair:
		return Fair
	}
	return Poor
}

// RateMetric dispatches to the grader for kind. Unknown kinds are
// NotApplicable.
func RateMetric(kind Metric, value float64) Rating {
	switch kind {
	case Download:
		return RateDownload(value)
	case Upload:
		return RateUpload(value)
	case Ping:
		return RatePing(value)
	}
	return NotApplicable
}

// OverallRating returns the worst of ratings, ignoring NotApplicable. With
// nothing left to compare it returns Excellent.
func OverallRating(ratings ...Rating) Rating {
	worst := Excellent
	for _, r := range ratings {
		if r.Worse(worst) {
			worst = r
		}
	}
	return worst
}

// DetectLimitingFactor returns the first metric, in download, upload, ping
// order, whose rating equals overall. An Excellent connection has no
// limiting factor.
func DetectLimitingFactor(r Ratings, overall Rating) Metric {
	if overall == Excellent {
		return NoLimit
	}
	for _, m := range metricOrder {
		rating := r.get(m)
		if rating == overall && rating != NotApplicable {
			return m
		}
	}
	return NoLimit
}

// rateAll grades every metric of a normalized measurement.
func rateAll(m Measurement) Ratings {
	return Ratings{
		Download: RateDownload(m.Download),
		Upload:   RateUpload(m.Upload),
		Ping:     RatePing(m.Ping),
	}
}

// overallOf folds the applicable ratings of r into one grade.
func overallOf(r Ratings) Rating {
	considered := []Rating{r.Download, r.Ping}
	if r.Upload != NotApplicable {
		considered = append(considered, r.Upload)
	}
	return OverallRating(considered...)
}
