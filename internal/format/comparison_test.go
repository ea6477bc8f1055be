package format

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/climatenet/sensor-bot/internal/measure"
)

func TestComparisonDocumentTwoDevices(t *testing.T) {
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	devices := []ComparisonDevice{
		{Name: "Yerevan Center"},
		{Name: "Gyumri Park", Issues: []string{"PM sensor drift"}},
	}
	measurements := []measure.Measurement{
		{Timestamp: "2026-08-30 11:55:00", UV: fp(4), PM25: fp(40), Temperature: fp(27.4)},
		{Timestamp: "2026-08-29 09:00:00", PM25: fp(300)},
	}

	doc, err := ComparisonDocument(devices, measurements, now)
	require.NoError(t, err)

	require.Contains(t, doc, `<link rel="stylesheet" href="INLINE_CSS_HERE">`)
	require.Contains(t, doc, "🔹Yerevan Center")
	require.Contains(t, doc, "🔹Gyumri Park")

	// Per-cell freshness classes.
	require.Contains(t, doc, "timestamp-uptodate")
	require.Contains(t, doc, "timestamp-outdated")

	// Band severity styling: UV 4 is Moderate, PM2.5 40 unhealthy-range,
	// PM2.5 300 hazardous.
	require.Contains(t, doc, "status-moderate")
	require.Contains(t, doc, "status-unhealthy")
	require.Contains(t, doc, "status-dangerous")

	// Issues row present; the issue-free device still renders an empty cell.
	require.Contains(t, doc, "⚠️ Technical Problems")
	require.Contains(t, doc, "⚠️ PM sensor drift")
	require.Equal(t, 2, strings.Count(comparisonIssuesRow(t, doc), "<td"))

	// Absent fields render as N/A, never zero.
	require.Contains(t, doc, "N/A")
}

func comparisonIssuesRow(t *testing.T, doc string) string {
	t.Helper()
	start := strings.Index(doc, "⚠️ Technical Problems")
	require.GreaterOrEqual(t, start, 0)
	end := strings.Index(doc[start:], "</tr>")
	require.GreaterOrEqual(t, end, 0)
	return doc[start : start+end]
}

func TestComparisonDocumentOmitsIssuesRowWhenClean(t *testing.T) {
	devices := []ComparisonDevice{{Name: "A"}, {Name: "B"}}
	measurements := make([]measure.Measurement, 2)

	doc, err := ComparisonDocument(devices, measurements, time.Now())
	require.NoError(t, err)
	require.NotContains(t, doc, "Technical Problems")
}

func TestComparisonDocumentSizeBounds(t *testing.T) {
	one := []ComparisonDevice{{Name: "A"}}
	_, err := ComparisonDocument(one, make([]measure.Measurement, 1), time.Now())
	require.ErrorIs(t, err, ErrComparisonSize)

	six := make([]ComparisonDevice, 6)
	_, err = ComparisonDocument(six, make([]measure.Measurement, 6), time.Now())
	require.ErrorIs(t, err, ErrComparisonSize)

	_, err = ComparisonDocument([]ComparisonDevice{{Name: "A"}, {Name: "B"}}, make([]measure.Measurement, 3), time.Now())
	require.ErrorIs(t, err, ErrComparisonMismatch)
}
