package httpapi

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"

	"github.com/i474232898/lwp-live/internal/archive"
	"github.com/i474232898/lwp-live/internal/feed"
	"github.com/i474232898/lwp-live/internal/relay"
)

// FeedSynthesizer produces feed documents; see feed.Engine.
type FeedSynthesizer interface {
	Synthesize(ctx context.Context, feedID string) ([]byte, error)
}

// ImageRelay serves relayed images; see relay.Relay.
type ImageRelay interface {
	Fetch(ctx context.Context, id string) ([]byte, error)
	ByFile(file string) (string, bool)
}

// Deps is everything the routes need. Metrics may be nil.
type Deps struct {
	Feeds  FeedSynthesizer
	Images ImageRelay

	ChannelDir string
	WebsiteDir string
	PluginDir  string

	SessionID string
	Metrics   http.Handler
}

// ErrorHandler is the centralized error response.
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	var e *fiber.Error
	if errors.As(err, &e) {
		code = e.Code
	}
	return c.Status(code).JSON(fiber.Map{
		"error":   true,
		"message": err.Error(),
	})
}

// NoCache asks the client and any proxy not to keep responses.
func NoCache() fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Set(fiber.HeaderCacheControl, "no-store, no-cache, must-revalidate, proxy-revalidate")
		c.Set(fiber.HeaderPragma, "no-cache")
		c.Set(fiber.HeaderExpires, "0")
		c.Set("Surrogate-Control", "no-store")
		return c.Next()
	}
}

// RegisterRoutes wires the HTTP handlers into the Fiber app. The catch-all
// is registered last, so callers must add their own routes before this.
func RegisterRoutes(app *fiber.App, d Deps) {
	app.Use(NoCache())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"service": "lwp-live",
		})
	})
	if d.Metrics != nil {
		app.Get("/metrics", adaptor.HTTPHandler(d.Metrics))
	}

	app.Get("/api/camera/:cityId", image(d.Images, "cityId"))

	app.Static("/websites", d.WebsiteDir)

	registerChannels(app, d)

	lwp := app.Group("/acfs/noauth/lwp/FLWP00001")
	lwp.Get("/:region/:subregion/city_diff.xml.zip", feedZip(d.Feeds, feed.CityFeed.ID, "city_diff.xml"))
	lwp.Get("/cloud.xml.zip", feedZip(d.Feeds, feed.CloudFeed.ID, "cloud.xml"))
	lwp.Get("/cloud.jpg", imageID(d.Images, relay.CloudID))

	registerSession(app, d)

	app.Get("/:v/:filename", func(c *fiber.Ctx) error {
		id, ok := d.Images.ByFile(c.Params("filename"))
		if !ok {
			return c.Status(fiber.StatusNotFound).SendString("Camera not configured")
		}
		return sendImage(c, d.Images, id)
	})

	app.All("/*", func(c *fiber.Ctx) error {
		log.Printf("http: unhandled %s %s", c.Method(), c.OriginalURL())
		return c.SendString("boo")
	})
}

func feedZip(feeds FeedSynthesizer, feedID, name string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		doc, err := feeds.Synthesize(c.UserContext(), feedID)
		if err != nil {
			if errors.Is(err, feed.ErrUnknownFeed) {
				return fiber.NewError(fiber.StatusNotFound, err.Error())
			}
			return fiber.NewError(fiber.StatusInternalServerError, "failed to build "+name)
		}
		return sendZip(c, name, doc)
	}
}

func sendZip(c *fiber.Ctx, name string, data []byte) error {
	z, err := archive.Single(name, data)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}
	c.Set(fiber.HeaderContentType, "application/zip")
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="%s.zip"`, name))
	return c.Send(z)
}

func image(images ImageRelay, param string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return sendImage(c, images, c.Params(param))
	}
}

func imageID(images ImageRelay, id string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return sendImage(c, images, id)
	}
}

func sendImage(c *fiber.Ctx, images ImageRelay, id string) error {
	img, err := images.Fetch(c.UserContext(), id)
	if err != nil {
		if errors.Is(err, relay.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).SendString("Offline")
		}
		return err
	}
	c.Set(fiber.HeaderContentType, "image/jpeg")
	return c.Send(img)
}
