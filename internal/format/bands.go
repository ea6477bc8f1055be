package format

import (
	"time"

	"github.com/climatenet/sensor-bot/internal/common"
)

// Pollutant names accepted by ParticulateBand.
const (
	PM1  = "PM1.0"
	PM25 = "PM2.5"
	PM10 = "PM10"
)

// Freshness classes for a measurement timestamp.
const (
	FreshnessUpToDate = "uptodate"
	FreshnessOutdated = "outdated"
)

// maxFreshAge matches the sensors' 15-minute update cadence.
const maxFreshAge = 15 * time.Minute

// timestampLayout is the display form of measurement times, after the remote
// 'T' separator has been normalized to a space.
const timestampLayout = "2006-01-02 15:04:05"

// Band is a severity classification derived from a numeric threshold table.
// The zero Band means the source value was absent and renders as N/A.
type Band struct {
	Label string
	Emoji string
}

// String renders the band as "Label Emoji", or N/A for the zero Band.
func (b Band) String() string {
	if b.Label == "" {
		return "N/A"
	}
	return b.Label + " " + b.Emoji
}

// Description renders the label alone, or N/A for the zero Band.
func (b Band) Description() string {
	if b.Label == "" {
		return "N/A"
	}
	return b.Label
}

// UVBand classifies a UV index value over the fixed WHO breakpoints.
func UVBand(uv *float64) Band {
	if uv == nil {
		return Band{}
	}
	switch {
	case *uv < 3:
		return Band{"Low", "🟢"}
	case *uv <= 5:
		return Band{"Moderate", "🟡"}
	case *uv <= 7:
		return Band{"High", "🟠"}
	case *uv <= 10:
		return Band{"Very High", "🔴"}
	default:
		return Band{"Extreme", "🟣"}
	}
}

// particulateThresholds holds the ascending upper bounds per pollutant; a
// value above the last bound falls into the most severe level.
var particulateThresholds = map[string][]float64{
	PM1:  {50, 100, 150, 200, 300},
	PM25: {12, 36, 56, 151, 251},
	PM10: {54, 154, 254, 354, 504},
}

var particulateLevels = []Band{
	{"Good", "🟢"},
	{"Moderate", "🟡"},
	{"Unhealthy for Sensitive Groups", "🟠"},
	{"Unhealthy", "🟠"},
	{"Very Unhealthy", "🔴"},
	{"Hazardous", "🔴"},
}

// ParticulateBand classifies a particulate-matter value against the
// pollutant's threshold table. Threshold i is the inclusive upper bound of
// severity level i+1; anything above the last threshold, or an unknown
// pollutant, falls into the most severe level.
func ParticulateBand(value *float64, pollutant string) Band {
	if value == nil {
		return Band{}
	}
	for i, limit := range particulateThresholds[pollutant] {
		if *value <= limit {
			return particulateLevels[i+1]
		}
	}
	return particulateLevels[len(particulateLevels)-1]
}

// SeverityClass maps a band label to a styling class. Dangerous terms are
// checked first so that "Very High" does not match as merely "High".
func SeverityClass(label string) string {
	switch {
	case common.HasAny(label, "Very High", "Extreme", "Hazardous"):
		return "status-dangerous"
	case common.HasAny(label, "Unhealthy", "High"):
		return "status-unhealthy"
	case common.HasAny(label, "Moderate"):
		return "status-moderate"
	case common.HasAny(label, "Good", "Low"):
		return "status-good"
	default:
		return ""
	}
}

// FreshnessClass classifies a measurement timestamp against the expected
// update cadence. Unparseable input classifies as outdated rather than
// failing.
func FreshnessClass(timestamp string, now time.Time) string {
	if timestamp == "" || timestamp == "N/A" {
		return FreshnessOutdated
	}
	ts, err := time.ParseInLocation(timestampLayout, timestamp, time.UTC)
	if err != nil {
		return FreshnessOutdated
	}
	if now.UTC().Sub(ts) <= maxFreshAge {
		return FreshnessUpToDate
	}
	return FreshnessOutdated
}
