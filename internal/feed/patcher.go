package feed

import (
	"fmt"
	"log"
	"strconv"

	"github.com/i474232898/lwp-live/internal/common"
	"github.com/i474232898/lwp-live/internal/markup"
	"github.com/i474232898/lwp-live/internal/news"
	"github.com/i474232898/lwp-live/internal/weather"
)

// Bundle is the live data merged into one location's segment. Each field
// is independently live or at its fallback.
type Bundle struct {
	Celsius    weather.Temperature
	Fahrenheit weather.Temperature
	Icon       weather.Icon
	Headlines  []news.Headline
}

// SlotPolicy describes the news slots of a city block.
type SlotPolicy struct {
	// Element is the local name of a slot element.
	Element string
	// LinkAttr holds the headline link on a slot element.
	LinkAttr string
	// Max is the number of slots that may carry a headline.
	Max int
	// Placeholder fills every slot without a headline.
	Placeholder news.Headline
}

var DefaultSlots = SlotPolicy{
	Element:     "item",
	LinkAttr:    "url",
	Max:         news.MaxHeadlines,
	Placeholder: news.Headline{Title: "AP World News", Link: "https://apnews.com"},
}

const (
	celsiusGlyph    = "℃"
	fahrenheitGlyph = "℉"
)

// Patch rewrites a bound segment for loc. Steps run in a fixed order:
// guid, camera file, icon, temperatures, news slots. A step whose target
// is missing is skipped. Only a segment that is not bound to loc, or that
// cannot be tokenised, is an error.
func Patch(seg Segment, loc weather.Location, b Bundle, tok Token, slots SlotPolicy) ([]byte, error) {
	if seg.Location == nil || seg.Location.ID != loc.ID {
		return nil, fmt.Errorf("%w: segment %q is not bound to %s", ErrBoundary, seg.MarkerID, loc.ID)
	}
	frag, err := markup.Parse(seg.Data)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrBoundary, loc.ID, err)
	}

	p := &patcher{frag: frag, loc: loc}
	p.guid(tok)
	p.camera(tok)
	p.icon(b.Icon)
	p.temperature("celsius", b.Celsius.String()+celsiusGlyph)
	p.temperature("fahrenheit", b.Fahrenheit.String()+fahrenheitGlyph)
	p.headlines(b.Headlines, slots)

	return frag.Bytes(), nil
}

type patcher struct {
	frag *markup.Fragment
	loc  weather.Location
}

func (p *patcher) skip(what string) {
	log.Printf("feed: %s has no %s, skipped", p.loc.ID, what)
}

func (p *patcher) guid(tok Token) {
	els := p.frag.WithAttr("guid")
	if len(els) == 0 {
		p.skip("guid")
		return
	}
	value := tok.GUID(common.BaseName(p.loc.File))
	for _, el := range els {
		el.SetAttr("guid", value)
	}
}

func (p *patcher) camera(tok Token) {
	if p.loc.File == "" {
		return
	}
	old := markup.Escape(p.loc.File)
	repl := markup.Escape(tok.CameraPath(p.loc.File))
	n := 0
	for _, node := range p.frag.Nodes() {
		n += node.ReplaceAll(old, repl)
	}
	if n == 0 {
		p.skip("camera reference")
	}
}

func (p *patcher) icon(icon weather.Icon) {
	if !icon.Valid() {
		icon = weather.IconDefault
	}
	els := p.frag.WithAttr("pic")
	if len(els) == 0 {
		p.skip("icon")
		return
	}
	els[0].SetAttr("pic", strconv.Itoa(int(icon)))
}

func (p *patcher) temperature(pattern, text string) {
	for _, el := range p.frag.WithAttr("pattern") {
		if v, _ := el.Attr("pattern"); v != pattern {
			continue
		}
		if err := p.frag.SetContent(el, text); err != nil {
			log.Printf("feed: %s %s temperature not set: %v", p.loc.ID, pattern, err)
		}
		return
	}
	p.skip(pattern + " temperature")
}

func (p *patcher) headlines(items []news.Headline, slots SlotPolicy) {
	els := p.frag.Elements(slots.Element)
	if len(els) == 0 {
		p.skip("news slots")
		return
	}
	for i, el := range els {
		h := slots.Placeholder
		if i < slots.Max && i < len(items) && items[i].Title != "" {
			h = items[i]
		}
		if err := p.frag.SetContent(el, h.Title); err != nil {
			log.Printf("feed: %s news slot %d not set: %v", p.loc.ID, i, err)
			continue
		}
		if h.Link != "" && slots.LinkAttr != "" {
			el.SetAttr(slots.LinkAttr, h.Link)
		}
	}
}
