// Package interpret turns raw speed-test numbers into ratings, narrative
// text and capability estimates. Every function here is pure.
package interpret

// Interpret grades a measurement and explains the result. Non-finite or
// negative fields are treated as 0; the call never fails.
func Interpret(in Measurement) Result {
	m := Normalize(in)

	ratings := rateAll(m)
	overall := overallOf(ratings)
	factor := DetectLimitingFactor(ratings, overall)

	return Result{
		Summary:             Summary(m, overall),
		OverallRating:       overall,
		LimitingFactor:      factor,
		LimitingFactorLabel: factor.Label(),
		RatingExplanation:   RatingExplanation(factor, m, overall),
		RealWorldImpact:     RealWorldImpact(m),
		Advice:              Advice(factor),
		Capabilities:        CalculateCapabilities(m),
		Metrics: Metrics{
			Download: metricResult(Download, m.Download, ratings.Download),
			Upload:   metricResult(Upload, m.Upload, ratings.Upload),
			Ping:     metricResult(Ping, m.Ping, ratings.Ping),
		},
		Criteria: DefaultCriteria(),
		Raw:      m,
	}
}

// InterpretRaw interprets a loosely typed results object.
func InterpretRaw(raw map[string]any) Result {
	return Interpret(NormalizeRaw(raw))
}

func metricResult(metric Metric, v float64, r Rating) MetricResult {
	return MetricResult{
		Value:       v,
		Rating:      r,
		Explanation: Explanation(metric, r),
		Reason:      Reason(metric, v, r),
	}
}
