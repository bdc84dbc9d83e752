package main

import (
	"bytes"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/gpxstatus/server/internal/cache"
	"github.com/gpxstatus/server/internal/clients/jartic"
	"github.com/gpxstatus/server/internal/clients/nominatim"
	"github.com/gpxstatus/server/internal/clients/overpass"
	"github.com/gpxstatus/server/internal/config"
	"github.com/gpxstatus/server/internal/lib/track"
	"github.com/gpxstatus/server/internal/services"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Configuration invalid: %v", err)
	}

	zapLogger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer func() { _ = zapLogger.Sync() }()

	if cfg.TelemetryToken != "" {
		zapLogger = zapLogger.With(zap.String("telemetry", "enabled"))
	}

	pipeline := services.NewPipeline(
		nominatim.NewClient(cfg.NominatimBaseURL),
		overpass.NewClient(cfg.OverpassBaseURL),
		jartic.NewClient(cfg.TrafficBaseURL),
		cache.New(cache.DefaultTTL),
		zapLogger,
		services.Options{
			SnapThresholdMeters: cfg.SnapThresholdMeters,
			MapStyle:            cfg.MapStyle,
			MapAccessToken:      cfg.MapAccessToken,
		},
	)

	app := fiber.New(fiber.Config{
		AppName:      "gpxstatus v1.0",
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 5 * time.Minute, // a run makes many upstream calls
		BodyLimit:    32 * 1024 * 1024,
		ErrorHandler: errorHandler,
	})

	app.Use(recover.New())
	app.Use(logger.New(logger.Config{
		Format: "[${time}] ${status} - ${method} ${path} (${latency})\n",
	}))

	app.Get("/", homepage)
	app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})
	app.Post("/api/v1/closures", closuresHandler(pipeline, cfg))

	go func() {
		zapLogger.Info("server starting", zap.String("port", cfg.Port))
		if err := app.Listen(":" + cfg.Port); err != nil {
			zapLogger.Fatal("server error", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zapLogger.Info("shutting down")
	if err := app.ShutdownWithTimeout(5 * time.Second); err != nil {
		zapLogger.Warn("forced shutdown", zap.Error(err))
	}
}

// closuresHandler accepts a multipart GPX upload and runs the pipeline.
// With ?format=csv the affected-roads table is returned as a download;
// the default response is JSON with the table and the map figure.
func closuresHandler(pipeline *services.Pipeline, cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		fileHeader, err := c.FormFile("file")
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "a GPX file upload named 'file' is required")
		}

		interval := c.QueryInt("interval", cfg.SamplingInterval)

		file, err := fileHeader.Open()
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "could not read uploaded file")
		}
		defer file.Close()

		result, err := pipeline.Run(c.Context(), file, interval)
		if err != nil {
			switch {
			case errors.Is(err, track.ErrMalformedGPX), errors.Is(err, track.ErrInvalidInterval):
				return fiber.NewError(fiber.StatusBadRequest, err.Error())
			default:
				return fiber.NewError(fiber.StatusBadGateway, err.Error())
			}
		}

		if c.Query("format") == "csv" {
			var buf bytes.Buffer
			if err := result.AffectedRoads.WriteCSV(&buf); err != nil {
				return fiber.NewError(fiber.StatusInternalServerError, err.Error())
			}
			c.Set(fiber.HeaderContentType, "text/csv; charset=utf-8")
			c.Set(fiber.HeaderContentDisposition, `attachment; filename="closed_roads.csv"`)
			return c.Send(buf.Bytes())
		}

		return c.JSON(fiber.Map{
			"affected_roads":    result.AffectedRoads.Records,
			"complete_closures": result.CompleteClosures.Records,
			"figure":            result.Figure,
		})
	}
}

func errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal Server Error"

	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
		message = e.Message
	}

	return c.Status(code).JSON(fiber.Map{
		"error":   true,
		"message": message,
	})
}

// homepage serves a simple plain-text-styled overview at the server root.
func homepage(c *fiber.Ctx) error {
	c.Set(fiber.HeaderContentType, fiber.MIMETextHTMLCharsetUTF8)
	return c.SendString(`<!DOCTYPE html>
<html>
<head>
    <meta charset="utf-8">
    <title>gpxstatus</title>
    <style>
        body {
            font-family: 'Courier New', Consolas, monospace;
            background: #000;
            color: #0f0;
            padding: 20px;
            line-height: 1.4;
        }
        .header { color: #ff0; }
        pre { margin: 0; }
    </style>
</head>
<body>
<pre>
<span class="header">gpxstatus</span>

Check a recorded GPX route against live traffic restrictions and get the
closed sections highlighted on a map.

<span class="header">API:</span>

  POST /api/v1/closures              multipart upload, field "file" (GPX)
       ?interval=200|300|400         point sampling stride (default 400)
       ?format=csv                   download the table as CSV

  GET  /healthz

<span class="header">Data Sources:</span>
  - OpenStreetMap Nominatim   - reverse geocoding
  - Overpass API              - road number lookup
  - JARTIC                    - live traffic restrictions
</pre>
</body>
</html>`)
}
