// Package render turns an interpretation into the HTML results page.
package render

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"math"
	"strings"

	"github.com/bilal/speedcheck/internal/interpret"
)

//go:embed templates/report.html.tmpl
var templateFS embed.FS

var page = template.Must(template.New("report.html.tmpl").Funcs(template.FuncMap{
	"fixed": func(v float64, places int) string {
		return fmt.Sprintf("%.*f", places, v)
	},
	"lower": func(r interpret.Rating) string {
		return strings.ToLower(string(r))
	},
}).ParseFS(templateFS, "templates/report.html.tmpl"))

// Bar is one horizontal chart bar.
type Bar struct {
	Label     string
	Value     float64
	Unit      string
	Places    int
	Percent   float64
	Reference float64
}

// Card is one metric card.
type Card struct {
	Icon     string
	Name     string
	Unit     string
	Places   int
	Measured bool
	interpret.MetricResult
}

// Capability is one entry of the capabilities grid.
type Capability struct {
	Flag  interpret.Flag
	Label string
}

type view struct {
	Result       interpret.Result
	FactorLabel  string
	Cards        []Card
	Bars         []Bar
	Capabilities []Capability
}

// Page writes the full results page for res.
func Page(w io.Writer, res interpret.Result) error {
	if err := page.Execute(w, newView(res)); err != nil {
		return fmt.Errorf("render report: %w", err)
	}
	return nil
}

func newView(res interpret.Result) view {
	return view{
		Result:      res,
		FactorLabel: res.LimitingFactorLabel,
		Cards: []Card{
			{Icon: "⬇️", Name: "Download", Unit: "Mbps", Places: 2, Measured: true, MetricResult: res.Metrics.Download},
			{Icon: "⬆️", Name: "Upload", Unit: "Mbps", Places: 2, Measured: res.Metrics.Upload.Value > 0, MetricResult: res.Metrics.Upload},
			{Icon: "📡", Name: "Ping", Unit: "ms", Places: 0, Measured: true, MetricResult: res.Metrics.Ping},
		},
		Bars:         ChartBars(res),
		Capabilities: capabilityGrid(res.Capabilities),
	}
}

// ChartBars scales each metric against its reference maximum. Ping is
// inverted so a fuller bar always means better.
func ChartBars(res interpret.Result) []Bar {
	c := res.Criteria
	downloadMax := orDefault(c.Download.Excellent, 100)
	uploadMax := orDefault(c.Upload.Excellent, 20)
	pingMax := orDefault(c.Ping.Fair, 100)

	return []Bar{
		{Label: "Download", Value: res.Metrics.Download.Value, Unit: "Mbps", Places: 2, Reference: downloadMax,
			Percent: Percent(res.Metrics.Download.Value, downloadMax, false)},
		{Label: "Upload", Value: res.Metrics.Upload.Value, Unit: "Mbps", Places: 2, Reference: uploadMax,
			Percent: Percent(res.Metrics.Upload.Value, uploadMax, false)},
		{Label: "Ping", Value: res.Metrics.Ping.Value, Unit: "ms", Places: 0, Reference: pingMax,
			Percent: Percent(res.Metrics.Ping.Value, pingMax, true)},
	}
}

// Percent is value as a share of max in [0,100]; invert measures the
// remaining headroom instead.
func Percent(value, max float64, invert bool) float64 {
	if !finite(value) || !finite(max) || max <= 0 {
		return 0
	}
	ratio := value / max
	p := ratio * 100
	if invert {
		p = (1 - ratio) * 100
	}
	return math.Max(0, math.Min(100, p))
}

func capabilityGrid(c interpret.Capabilities) []Capability {
	gaming := "Online Gaming"
	if c.Gaming == interpret.Warn {
		gaming = "Online Gaming (higher ping may add lag)"
	}
	return []Capability{
		{c.Streaming4K, "4K Streaming"},
		{c.StreamingHD, "HD Streaming"},
		{c.VideoCallsHD, "HD Video Calls"},
		{c.Gaming, gaming},
		{c.CompetitiveGaming, "Competitive Gaming"},
		{c.CloudSync, "Fast Cloud Sync"},
	}
}

func orDefault(v, def float64) float64 {
	if v > 0 {
		return v
	}
	return def
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
