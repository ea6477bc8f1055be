package format

import (
	_ "embed"
	"errors"
	"fmt"
	"strings"
	"text/template"
	"time"

	"github.com/climatenet/sensor-bot/internal/measure"
)

// Comparison size bounds mirror the session's selection limits.
const (
	MinComparisonDevices = 2
	MaxComparisonDevices = 5
)

var (
	ErrComparisonSize     = errors.New("comparison requires between 2 and 5 devices")
	ErrComparisonMismatch = errors.New("device and measurement counts differ")
)

//go:embed templates/comparison.html
var comparisonSkeleton string

var comparisonTemplate = template.Must(template.New("comparison").Parse(comparisonSkeleton))

// ComparisonDevice carries the per-column device metadata the table needs.
type ComparisonDevice struct {
	Name   string
	Issues []string
}

type comparisonRow struct {
	Label string
	Cells string
}

type comparisonData struct {
	Headers string
	Rows    []comparisonRow
}

// ComparisonDocument builds the side-by-side HTML table for 2-5 devices.
// Measurements correspond to devices positionally. Each cell computes its own
// band, severity and freshness classes; a device without issues still gets an
// empty cell in the issues row so its column is never dropped.
func ComparisonDocument(devices []ComparisonDevice, measurements []measure.Measurement, now time.Time) (string, error) {
	if len(devices) < MinComparisonDevices || len(devices) > MaxComparisonDevices {
		return "", ErrComparisonSize
	}
	if len(devices) != len(measurements) {
		return "", ErrComparisonMismatch
	}

	var headers strings.Builder
	for _, d := range devices {
		fmt.Fprintf(&headers, "      <th class=\"device-header\">🔹%s</th>\n", d.Name)
	}

	data := comparisonData{
		Headers: headers.String(),
		Rows: []comparisonRow{
			{Label: "🕒 Timestamp", Cells: timestampCells(measurements, now)},
			{Label: "☀️ UV Index", Cells: bandedCells(measurements, func(m measure.Measurement) (*float64, Band) {
				return m.UV, UVBand(m.UV)
			}, "")},
			{Label: "🔆 Light", Cells: plainCells(measurements, func(m measure.Measurement) string {
				return safeNumber(m.Lux, "", false) + " lux"
			})},
			{Label: "🌡️ Temperature", Cells: plainCells(measurements, func(m measure.Measurement) string {
				return safeNumber(m.Temperature, "", true) + "°C"
			})},
			{Label: "💧 Humidity", Cells: plainCells(measurements, func(m measure.Measurement) string {
				return safeNumber(m.Humidity, "", false) + "%"
			})},
			{Label: "⏲️ Pressure", Cells: plainCells(measurements, func(m measure.Measurement) string {
				return safeNumber(m.Pressure, "", false) + " hPa"
			})},
			{Label: "🫁 PM1.0", Cells: bandedCells(measurements, func(m measure.Measurement) (*float64, Band) {
				return m.PM1, ParticulateBand(m.PM1, PM1)
			}, " µg/m³")},
			{Label: "💨 PM2.5", Cells: bandedCells(measurements, func(m measure.Measurement) (*float64, Band) {
				return m.PM25, ParticulateBand(m.PM25, PM25)
			}, " µg/m³")},
			{Label: "🌫️ PM10", Cells: bandedCells(measurements, func(m measure.Measurement) (*float64, Band) {
				return m.PM10, ParticulateBand(m.PM10, PM10)
			}, " µg/m³")},
			{Label: "🌪️ Wind Speed", Cells: plainCells(measurements, func(m measure.Measurement) string {
				return safeNumber(m.WindSpeed, "", false) + " m/s"
			})},
			{Label: "🌧️ Rainfall", Cells: plainCells(measurements, func(m measure.Measurement) string {
				return safeNumber(m.Rain, "", false) + " mm"
			})},
			{Label: "🧭 Wind Direction", Cells: plainCells(measurements, func(m measure.Measurement) string {
				return safeText(m.WindDirection)
			})},
		},
	}

	if row, ok := issuesRow(devices); ok {
		data.Rows = append(data.Rows, row)
	}

	var out strings.Builder
	if err := comparisonTemplate.Execute(&out, data); err != nil {
		return "", fmt.Errorf("render comparison template: %w", err)
	}
	return out.String(), nil
}

func timestampCells(measurements []measure.Measurement, now time.Time) string {
	var b strings.Builder
	for _, m := range measurements {
		ts := m.Timestamp
		if ts == "" {
			ts = "N/A"
		}
		class := FreshnessClass(ts, now)
		fmt.Fprintf(&b, "<td class=\"device-cell timestamp-cell-%s\"><div class=\"timestamp timestamp-%s\">%s</div></td>", class, class, ts)
	}
	return b.String()
}

func bandedCells(measurements []measure.Measurement, pick func(measure.Measurement) (*float64, Band), unit string) string {
	var b strings.Builder
	for _, m := range measurements {
		value, band := pick(m)
		desc := band.Description()
		fmt.Fprintf(&b, "<td class=\"device-cell\"><div class=\"value %s\">%s%s</div><div class=\"description\">%s</div></td>",
			SeverityClass(desc), safeNumber(value, "", false), unit, desc)
	}
	return b.String()
}

func plainCells(measurements []measure.Measurement, render func(measure.Measurement) string) string {
	var b strings.Builder
	for _, m := range measurements {
		fmt.Fprintf(&b, "<td class=\"device-cell\"><div class=\"value\">%s</div></td>", render(m))
	}
	return b.String()
}

func issuesRow(devices []ComparisonDevice) (comparisonRow, bool) {
	hasIssues := false
	var b strings.Builder
	for _, d := range devices {
		var cell strings.Builder
		for _, issue := range d.Issues {
			hasIssues = true
			fmt.Fprintf(&cell, "<p class=\"warning\">⚠️ %s</p>", issue)
		}
		fmt.Fprintf(&b, "<td class=\"device-cell\"><div>%s</div></td>", cell.String())
	}
	if !hasIssues {
		return comparisonRow{}, false
	}
	return comparisonRow{Label: "⚠️ Technical Problems", Cells: b.String()}, true
}
