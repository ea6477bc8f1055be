package format

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func fp(v float64) *float64 { return &v }

func TestUVBand(t *testing.T) {
	cases := []struct {
		uv   *float64
		want string
	}{
		{fp(2), "Low"},
		{fp(3), "Moderate"},
		{fp(5), "Moderate"},
		{fp(7), "High"},
		{fp(10), "Very High"},
		{fp(11), "Extreme"},
		{nil, "N/A"},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, UVBand(tc.uv).Description())
	}
}

func TestUVBandStringIncludesEmoji(t *testing.T) {
	require.Equal(t, "Low 🟢", UVBand(fp(1)).String())
	require.Equal(t, "N/A", UVBand(nil).String())
}

func TestParticulateBandBoundaries(t *testing.T) {
	require.Equal(t, "Moderate", ParticulateBand(fp(12), PM25).Description())
	require.Equal(t, "Unhealthy for Sensitive Groups", ParticulateBand(fp(13), PM25).Description())
	require.Equal(t, "Hazardous", ParticulateBand(fp(1000), PM25).Description())
	require.Equal(t, "Moderate", ParticulateBand(fp(50), PM1).Description())
	require.Equal(t, "Moderate", ParticulateBand(fp(54), PM10).Description())
	require.Equal(t, "N/A", ParticulateBand(nil, PM25).Description())
}

func TestParticulateBandUnknownPollutantIsMostSevere(t *testing.T) {
	require.Equal(t, "Hazardous", ParticulateBand(fp(1), "PM0.1").Description())
}

func TestSeverityClassPrecedence(t *testing.T) {
	require.Equal(t, "status-dangerous", SeverityClass("Very High"))
	require.Equal(t, "status-dangerous", SeverityClass("Hazardous"))
	require.Equal(t, "status-unhealthy", SeverityClass("High"))
	require.Equal(t, "status-unhealthy", SeverityClass("Unhealthy for Sensitive Groups"))
	require.Equal(t, "status-moderate", SeverityClass("Moderate"))
	require.Equal(t, "status-good", SeverityClass("Low"))
	require.Equal(t, "", SeverityClass("N/A"))
}

func TestFreshnessClass(t *testing.T) {
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)

	require.Equal(t, FreshnessUpToDate, FreshnessClass("2026-08-30 11:50:00", now))
	require.Equal(t, FreshnessUpToDate, FreshnessClass("2026-08-30 11:45:00", now))
	require.Equal(t, FreshnessOutdated, FreshnessClass("2026-08-30 11:44:59", now))
	require.Equal(t, FreshnessOutdated, FreshnessClass("not a timestamp", now))
	require.Equal(t, FreshnessOutdated, FreshnessClass("", now))
	require.Equal(t, FreshnessOutdated, FreshnessClass("N/A", now))
}
