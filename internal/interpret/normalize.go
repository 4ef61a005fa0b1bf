package interpret

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// ToNumber converts an arbitrary decoded value to a finite, non-negative
// float. Anything it cannot read as a number becomes 0.
func ToNumber(v any) float64 {
	var f float64
	switch n := v.(type) {
	case nil:
		return 0
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int:
		f = float64(n)
	case int32:
		f = float64(n)
	case int64:
		f = float64(n)
	case uint:
		f = float64(n)
	case uint32:
		f = float64(n)
	case uint64:
		f = float64(n)
	case json.Number:
		parsed, err := n.Float64()
		if err != nil {
			return 0
		}
		f = parsed
	case string:
		s := strings.TrimSpace(n)
		if s == "" {
			return 0
		}
		parsed, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0
		}
		f = parsed
	case bool:
		if n {
			return 1
		}
		return 0
	default:
		return 0
	}
	return clean(f)
}

func clean(f float64) float64 {
	if math.IsNaN(f) || math.IsInf(f, 0) || f < 0 {
		return 0
	}
	return f
}

// Normalize replaces every non-finite or negative field of m with 0.
func Normalize(m Measurement) Measurement {
	return Measurement{
		Download:     clean(m.Download),
		Upload:       clean(m.Upload),
		Ping:         clean(m.Ping),
		DownloadData: clean(m.DownloadData),
		UploadData:   clean(m.UploadData),
	}
}

// NormalizeRaw builds a Measurement from a loosely typed results object, as
// produced by decoding arbitrary JSON. Missing keys become 0.
func NormalizeRaw(raw map[string]any) Measurement {
	if raw == nil {
		return Measurement{}
	}
	return Measurement{
		Download:     ToNumber(raw["download"]),
		Upload:       ToNumber(raw["upload"]),
		Ping:         ToNumber(raw["ping"]),
		DownloadData: ToNumber(raw["downloadData"]),
		UploadData:   ToNumber(raw["uploadData"]),
	}
}
