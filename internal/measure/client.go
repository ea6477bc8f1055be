package measure

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strings"
)

// latestRecord mirrors one entry of the per-device latest-measurement
// endpoint. The remote uses a 'T' date/time separator and short field names
// for wind.
type latestRecord struct {
	Time        string   `json:"time"`
	UV          *float64 `json:"uv"`
	Lux         *float64 `json:"lux"`
	Temperature *float64 `json:"temperature"`
	Pressure    *float64 `json:"pressure"`
	Humidity    *float64 `json:"humidity"`
	PM1         *float64 `json:"pm1"`
	PM25        *float64 `json:"pm2_5"`
	PM10        *float64 `json:"pm10"`
	Speed       *float64 `json:"speed"`
	Rain        *float64 `json:"rain"`
	Direction   *string  `json:"direction"`
}

// Client fetches the latest reading for a single device. It holds no state
// and never retries; callers decide whether an absent reading is fatal.
type Client struct {
	urlTemplate string // must contain one %s for the device id
	httpClient  *http.Client
}

// NewClient builds a measurement client. urlTemplate is the per-device
// endpoint with a %s placeholder for the device id.
func NewClient(urlTemplate string, httpClient *http.Client) *Client {
	return &Client{
		urlTemplate: urlTemplate,
		httpClient:  httpClient,
	}
}

// Latest returns the newest measurement for deviceID, or ok=false when the
// endpoint fails, returns a non-2xx status, or has no data. Transport
// problems are logged and surfaced as absence, not as an error.
func (c *Client) Latest(ctx context.Context, deviceID string) (Measurement, bool) {
	url := fmt.Sprintf(c.urlTemplate, deviceID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		log.Printf("measure: build request for device %s: %v", deviceID, err)
		return Measurement{}, false
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.Printf("measure: request failed for device %s: %v", deviceID, err)
		return Measurement{}, false
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		log.Printf("measure: device %s returned status %d", deviceID, resp.StatusCode)
		return Measurement{}, false
	}

	var records []latestRecord
	if err := json.NewDecoder(resp.Body).Decode(&records); err != nil {
		log.Printf("measure: decode response for device %s: %v", deviceID, err)
		return Measurement{}, false
	}
	if len(records) == 0 {
		log.Printf("measure: no data returned for device %s", deviceID)
		return Measurement{}, false
	}

	rec := records[0]
	return Measurement{
		Timestamp:     strings.ReplaceAll(rec.Time, "T", " "),
		UV:            rec.UV,
		Lux:           rec.Lux,
		Temperature:   rec.Temperature,
		Pressure:      rec.Pressure,
		Humidity:      rec.Humidity,
		PM1:           rec.PM1,
		PM25:          rec.PM25,
		PM10:          rec.PM10,
		WindSpeed:     rec.Speed,
		Rain:          rec.Rain,
		WindDirection: rec.Direction,
	}, true
}
