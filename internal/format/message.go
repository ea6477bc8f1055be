package format

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/climatenet/sensor-bot/internal/measure"
)

// safeNumber renders an optional numeric value with a unit suffix, or N/A
// when absent. NaN counts as absent.
func safeNumber(v *float64, unit string, round bool) string {
	if v == nil || math.IsNaN(*v) {
		return "N/A"
	}
	if round {
		return strconv.Itoa(int(math.Round(*v))) + unit
	}
	return strconv.FormatFloat(*v, 'f', -1, 64) + unit
}

func safeText(v *string) string {
	if v == nil || *v == "" {
		return "N/A"
	}
	return *v
}

// DeviceMessage builds the single-device reply body: timestamp, light/UV,
// environmental, air-quality and weather sections, plus a technical-issues
// block when the device has active issues. The markup is the channel's HTML
// subset.
func DeviceMessage(device string, m measure.Measurement, issues []string) string {
	var b strings.Builder

	ts := m.Timestamp
	if ts == "" {
		ts = "N/A"
	}

	fmt.Fprintf(&b, "<b>Latest Measurement</b>\n")
	fmt.Fprintf(&b, "🔹 <b>Location:</b> <b>%s</b>\n", device)
	fmt.Fprintf(&b, "🔹 <b>Timestamp:</b> %s\n\n", ts)

	fmt.Fprintf(&b, "<b>Light and UV</b>\n")
	fmt.Fprintf(&b, "☀️ <b>UV Index:</b> %s (%s)\n", safeNumber(m.UV, "", false), UVBand(m.UV))
	fmt.Fprintf(&b, "🔆 <b>Light Intensity:</b> %s lux\n\n", safeNumber(m.Lux, "", false))

	fmt.Fprintf(&b, "<b>Environmental Conditions</b>\n")
	fmt.Fprintf(&b, "🌡️ <b>Temperature:</b> %s°C\n", safeNumber(m.Temperature, "", true))
	fmt.Fprintf(&b, "⏲️ <b>Atmospheric Pressure:</b> %s hPa\n", safeNumber(m.Pressure, "", false))
	fmt.Fprintf(&b, "💧 <b>Humidity:</b> %s%%\n\n", safeNumber(m.Humidity, "", false))

	fmt.Fprintf(&b, "<b>Air Quality</b>\n")
	fmt.Fprintf(&b, "🫁 <b>PM1.0:</b> %s µg/m³ (%s)\n", safeNumber(m.PM1, "", false), ParticulateBand(m.PM1, PM1))
	fmt.Fprintf(&b, "💨 <b>PM2.5:</b> %s µg/m³ (%s)\n", safeNumber(m.PM25, "", false), ParticulateBand(m.PM25, PM25))
	fmt.Fprintf(&b, "🌫️ <b>PM10:</b> %s µg/m³ (%s)\n\n", safeNumber(m.PM10, "", false), ParticulateBand(m.PM10, PM10))

	fmt.Fprintf(&b, "<b>Weather Condition</b>\n")
	fmt.Fprintf(&b, "🌪️ <b>Wind Speed:</b> %s m/s\n", safeNumber(m.WindSpeed, "", false))
	fmt.Fprintf(&b, "🌧️ <b>Rainfall:</b> %s mm\n", safeNumber(m.Rain, "", false))
	fmt.Fprintf(&b, "🧭 <b>Wind Direction:</b> %s\n", safeText(m.WindDirection))

	if len(issues) > 0 {
		fmt.Fprintf(&b, "\n<b>Technical Issues</b>\n")
		for _, issue := range issues {
			fmt.Fprintf(&b, "<b>⚠️ %s</b>\n", issue)
		}
	}

	return b.String()
}
