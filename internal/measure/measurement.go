package measure

// Measurement is a single point-in-time reading for one device. Numeric
// fields are pointers because the source may omit any of them; a nil field
// means "unknown" and must render as N/A, never as zero.
type Measurement struct {
	Timestamp     string
	UV            *float64
	Lux           *float64
	Temperature   *float64
	Pressure      *float64
	Humidity      *float64
	PM1           *float64
	PM25          *float64
	PM10          *float64
	WindSpeed     *float64
	Rain          *float64
	WindDirection *string
}
