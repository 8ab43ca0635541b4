package httpapi

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

var validate = validator.New()

const (
	contentTypeTicket  = "application/x-np-ticket"
	contentTypeWatcher = "application/x-cw-watcher-status"
	contentTypeXML     = "text/xml"
)

// registerChannels serves the static channel documents shipped in the
// channel and plugin directories.
func registerChannels(app *fiber.App, d Deps) {
	app.Get("/data/plugins/live/live.xml", xmlFile(filepath.Join(d.PluginDir, "live", "live.xml", "en")))

	channelList := xmlFile(filepath.Join(d.ChannelDir, "channel_list.xml"))
	app.Get("/lwp/info/:region/:subregion/channel_list.xml", channelList)
	app.Get("/acfs/lwp/info/:region/:subregion/channel_list.xml", channelList)

	app.Get("/acfs/noauth/lwp/FLWP00001/:region/:subregion/city_info.xml.zip",
		zipFile("city_info.xml", filepath.Join(d.ChannelDir, "FLWP00001", "city_info.xml")))

	// World Heritage
	app.Get("/acfs/noauth/lwp/FUNVL0001/info/:region/:subregion/globe.xml.zip",
		zipFile("globe.xml", filepath.Join(d.ChannelDir, "FUNVL0001", "globe", "globe.xml")))
	app.Get("/acfs/noauth/lwp/FUNVL0001/contentPubDate.xml",
		xmlFile(filepath.Join(d.ChannelDir, "FUNVL0001", "contentPubDate.xml")))

	// Alpha Clock
	app.Get("/tcfs/lwp/FALPL0001/info/:region/:subregion/globe.xml.zip",
		zipFile("globe.xml", filepath.Join(d.ChannelDir, "FALPL0001", "globe", "globe.xml")))
	app.Get("/tcfs/lwp/FALPL0001/contentPubDate.xml",
		xmlFile(filepath.Join(d.ChannelDir, "FALPL0001", "contentPubDate.xml")))

	app.Get("/lwp/live.zip", func(c *fiber.Ctx) error {
		data, err := os.ReadFile(filepath.Join(d.ChannelDir, "live.zip"))
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "live.zip unavailable")
		}
		c.Set(fiber.HeaderContentType, "application/zip")
		return c.Send(data)
	})
}

func xmlFile(path string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		data, err := os.ReadFile(path)
		if err != nil {
			log.Printf("ERROR: http: reading %s: %v", path, err)
			return fiber.NewError(fiber.StatusInternalServerError, "document unavailable")
		}
		c.Set(fiber.HeaderContentType, contentTypeXML)
		return c.Send(data)
	}
}

func zipFile(name, path string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		data, err := os.ReadFile(path)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				log.Printf("http: %s not found", path)
				return fiber.NewError(fiber.StatusNotFound, name+" not found")
			}
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return sendZip(c, name, data)
	}
}

type aasGetQuery struct {
	Cmd string `validate:"required,oneof=challenge logout"`
}

type aasPostQuery struct {
	Cmd        string `validate:"required,oneof=login createaccount updatesession"`
	JSessionID string `validate:"omitempty,alphanum,max=64"`
}

type watcherQuery struct {
	Cmd string `validate:"required,oneof=g c"`
}

// registerSession answers the account and statistics endpoints the client
// calls before it will load any channel. Every answer is canned.
func registerSession(app *fiber.App, d Deps) {
	app.Get("/aas/client", func(c *fiber.Ctx) error {
		q := aasGetQuery{Cmd: c.Query("cmd")}
		if err := validate.Struct(q); err != nil {
			return c.SendStatus(fiber.StatusBadRequest)
		}
		if q.Cmd == "logout" {
			return c.SendString("")
		}
		c.Set(fiber.HeaderContentType, contentTypeTicket)
		return c.SendString(fmt.Sprintf("nonce=aaaaa&JSESSIONID=%s", d.SessionID))
	})

	app.Post("/aas/client", func(c *fiber.Ctx) error {
		q := aasPostQuery{Cmd: c.Query("cmd"), JSessionID: c.Query("JSESSIONID")}
		if err := validate.Struct(q); err != nil {
			return c.SendStatus(fiber.StatusBadRequest)
		}
		switch q.Cmd {
		case "login":
			sid := q.JSessionID
			if sid == "" {
				sid = d.SessionID
			}
			c.Set(fiber.HeaderContentType, contentTypeTicket)
			c.Set(fiber.HeaderSetCookie, fmt.Sprintf("JSESSIONID=%s; Path=/", sid))
		case "createaccount":
			c.Set(fiber.HeaderContentType, "application/xml")
		}
		return c.SendString("")
	})

	app.Get("/stats/watcher", func(c *fiber.Ctx) error {
		q := watcherQuery{Cmd: c.Query("cmd")}
		if err := validate.Struct(q); err != nil {
			return c.SendStatus(fiber.StatusBadRequest)
		}
		if q.Cmd == "c" {
			return xmlFile(filepath.Join(d.ChannelDir, "unitedvillage", "default_city_info.xml"))(c)
		}
		c.Set(fiber.HeaderContentType, contentTypeWatcher)
		return c.SendString(fmt.Sprintf("save-uid=%s&delta-value=0&abs-value=1&country=en", d.SessionID))
	})

	app.Get("/stats/location", func(c *fiber.Ctx) error {
		c.Set(fiber.HeaderSetCookie, fmt.Sprintf("cwsessionid=%s; Path=/", d.SessionID))
		return xmlFile(filepath.Join(d.ChannelDir, "testing", "complete_location_list.loc"))(c)
	})
}
