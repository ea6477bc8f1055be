package httpapi

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/climatenet/sensor-bot/internal/directory"
	"github.com/climatenet/sensor-bot/internal/measure"
)

var validate = validator.New()

// Fetcher yields the latest measurement for a device id, or absence.
type Fetcher interface {
	Latest(ctx context.Context, deviceID string) (measure.Measurement, bool)
}

// RegisterRoutes wires the admin/ops HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, dir *directory.Directory, fetcher Fetcher) {
	v1 := app.Group("/api/v1")

	v1.Get("/directory", func(c *fiber.Ctx) error {
		snap := dir.Snapshot()

		regions := make([]fiber.Map, 0)
		for _, region := range snap.Regions() {
			devices := make([]fiber.Map, 0)
			for _, name := range snap.Devices(region) {
				id, _ := snap.DeviceID(name)
				devices = append(devices, fiber.Map{
					"name":       name,
					"id":         id,
					"has_issues": snap.HasIssues(name),
				})
			}
			regions = append(regions, fiber.Map{
				"region":  region,
				"devices": devices,
			})
		}

		return c.JSON(fiber.Map{
			"regions":              regions,
			"device_count":         snap.DeviceCount(),
			"devices_with_issues":  snap.IssueCount(),
			"consecutive_failures": dir.ConsecutiveFailures(),
		})
	})

	v1.Post("/directory/refresh", func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.Context(), 5*time.Minute)
		defer cancel()

		if err := dir.Refresh(ctx); err != nil {
			return fiber.NewError(fiber.StatusBadGateway, "directory refresh failed; serving last known data")
		}
		return c.JSON(fiber.Map{
			"refreshed":    true,
			"device_count": dir.Snapshot().DeviceCount(),
		})
	})

	v1.Get("/measurements/latest", func(c *fiber.Ctx) error {
		var q measurementQuery
		q.Device = c.Query("device")
		if err := validate.Struct(q); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		snap := dir.Snapshot()
		id, ok := snap.DeviceID(q.Device)
		if !ok {
			return fiber.NewError(fiber.StatusNotFound, "unknown device")
		}

		m, ok := fetcher.Latest(c.Context(), id)
		if !ok {
			return fiber.NewError(fiber.StatusNotFound, "no measurement available for device")
		}

		return c.JSON(fiber.Map{
			"device":      q.Device,
			"has_issues":  snap.HasIssues(q.Device),
			"measurement": toJSON(m),
		})
	})
}

// measurementQuery holds query parameters for the latest-measurement endpoint.
type measurementQuery struct {
	Device string `validate:"required"`
}

func toJSON(m measure.Measurement) fiber.Map {
	return fiber.Map{
		"timestamp":      m.Timestamp,
		"uv":             m.UV,
		"lux":            m.Lux,
		"temperature":    m.Temperature,
		"pressure":       m.Pressure,
		"humidity":       m.Humidity,
		"pm1":            m.PM1,
		"pm2_5":          m.PM25,
		"pm10":           m.PM10,
		"wind_speed":     m.WindSpeed,
		"rain":           m.Rain,
		"wind_direction": m.WindDirection,
	}
}
