package providers

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"strings"

	"github.com/i474232898/lwp-live/internal/news"
)

// parseFeed auto-detects RSS 2.0 or Atom 1.0 from the root element and
// returns its items as headlines.
func parseFeed(data []byte) ([]news.Headline, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("feed: empty data")
	}

	switch detectFormat(trimmed) {
	case "rss":
		return parseRSS(trimmed)
	case "atom":
		return parseAtom(trimmed)
	default:
		return nil, fmt.Errorf("feed: unknown format (expected <rss> or <feed>)")
	}
}

func detectFormat(data []byte) string {
	d := xml.NewDecoder(bytes.NewReader(data))
	for {
		tok, err := d.Token()
		if err != nil {
			return ""
		}
		if se, ok := tok.(xml.StartElement); ok {
			switch strings.ToLower(se.Name.Local) {
			case "rss", "rdf":
				return "rss"
			case "feed":
				return "atom"
			}
			return ""
		}
	}
}

type rssItem struct {
	Title string `xml:"title"`
	Link  string `xml:"link"`
	GUID  string `xml:"guid"`
}

type rssRoot struct {
	Channel struct {
		Items []rssItem `xml:"item"`
	} `xml:"channel"`
	// RSS 1.0 (RDF) keeps items beside the channel.
	Items []rssItem `xml:"item"`
}

func parseRSS(data []byte) ([]news.Headline, error) {
	var root rssRoot
	if err := xml.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("feed: parse rss: %w", err)
	}

	items := root.Channel.Items
	if len(items) == 0 {
		items = root.Items
	}

	out := make([]news.Headline, 0, len(items))
	for _, item := range items {
		link := strings.TrimSpace(item.Link)
		if link == "" && strings.HasPrefix(strings.TrimSpace(item.GUID), "http") {
			link = strings.TrimSpace(item.GUID)
		}
		out = append(out, news.Headline{Title: strings.TrimSpace(item.Title), Link: link})
	}
	return out, nil
}

type atomLink struct {
	Href string `xml:"href,attr"`
	Rel  string `xml:"rel,attr"`
}

type atomFeed struct {
	Entries []struct {
		Title string     `xml:"title"`
		Links []atomLink `xml:"link"`
	} `xml:"entry"`
}

func parseAtom(data []byte) ([]news.Headline, error) {
	var root atomFeed
	if err := xml.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("feed: parse atom: %w", err)
	}

	out := make([]news.Headline, 0, len(root.Entries))
	for _, entry := range root.Entries {
		out = append(out, news.Headline{
			Title: strings.TrimSpace(entry.Title),
			Link:  alternateLink(entry.Links),
		})
	}
	return out, nil
}

func alternateLink(links []atomLink) string {
	// Prefer rel="alternate", then first href.
	for _, l := range links {
		if l.Rel == "alternate" || l.Rel == "" {
			return strings.TrimSpace(l.Href)
		}
	}
	if len(links) > 0 {
		return strings.TrimSpace(links[0].Href)
	}
	return ""
}
