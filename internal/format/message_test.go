package format

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/climatenet/sensor-bot/internal/measure"
)

func TestDeviceMessageRendersSectionsAndNA(t *testing.T) {
	m := measure.Measurement{
		Timestamp:   "2026-08-30 11:45:00",
		UV:          fp(7),
		Temperature: fp(27.6),
		PM25:        fp(12),
	}

	msg := DeviceMessage("Yerevan Center", m, nil)

	require.Contains(t, msg, "<b>Yerevan Center</b>")
	require.Contains(t, msg, "2026-08-30 11:45:00")
	require.Contains(t, msg, "UV Index:</b> 7 (High 🟠)")
	require.Contains(t, msg, "Temperature:</b> 28°C") // rounded
	require.Contains(t, msg, "PM2.5:</b> 12 µg/m³ (Moderate 🟡)")

	// Absent fields render as N/A.
	require.Contains(t, msg, "Humidity:</b> N/A%")
	require.Contains(t, msg, "Wind Direction:</b> N/A")
	require.NotContains(t, msg, "Technical Issues")
}

func TestDeviceMessageAppendsIssuesBlock(t *testing.T) {
	msg := DeviceMessage("Gyumri Park", measure.Measurement{}, []string{"Low battery"})
	require.Contains(t, msg, "<b>Technical Issues</b>")
	require.Contains(t, msg, "⚠️ Low battery")
}
