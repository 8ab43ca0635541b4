package feed

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"

	"github.com/i474232898/lwp-live/internal/weather"
)

// DefaultMarker is the local name of the element that opens a city block,
// as in <live:cityId>JAXX0085</live:cityId>.
const DefaultMarker = "cityId"

// Segment is a contiguous slice of a template. Location is nil for the
// header and for blocks whose marker matches no configured location.
type Segment struct {
	MarkerID string
	Location *weather.Location
	Data     []byte
}

// Bound reports whether the segment belongs to a location.
func (s Segment) Bound() bool {
	return s.Location != nil
}

type cut struct {
	offset int
	id     string
}

// Split validates template and cuts it before every marker element. The
// first occurrence of a configured location id is bound to that location;
// concatenating the Data of the result reproduces template exactly.
func Split(template []byte, marker string, locs []weather.Location) ([]Segment, error) {
	if marker == "" {
		marker = DefaultMarker
	}
	if len(bytes.TrimSpace(template)) == 0 {
		return nil, &FatalError{Op: "parse", Err: errors.New("template is empty")}
	}

	cuts, err := findMarkers(template, marker)
	if err != nil {
		return nil, &FatalError{Op: "parse", Err: err}
	}

	byID := make(map[string]*weather.Location, len(locs))
	for i := range locs {
		loc := locs[i]
		byID[loc.ID] = &loc
	}

	segs := make([]Segment, 0, len(cuts)+1)
	if len(cuts) == 0 || cuts[0].offset > 0 {
		end := len(template)
		if len(cuts) > 0 {
			end = cuts[0].offset
		}
		segs = append(segs, Segment{Data: template[:end]})
	}

	bound := make(map[string]bool, len(cuts))
	for i, c := range cuts {
		end := len(template)
		if i+1 < len(cuts) {
			end = cuts[i+1].offset
		}
		seg := Segment{MarkerID: c.id, Data: template[c.offset:end]}
		if loc, ok := byID[c.id]; ok {
			if bound[c.id] {
				log.Printf("feed: duplicate marker %s left unpatched", c.id)
			} else {
				seg.Location = loc
				bound[c.id] = true
			}
		}
		segs = append(segs, seg)
	}
	return segs, nil
}

// findMarkers walks the whole document with a strict decoder, so a
// malformed template fails here rather than producing a broken feed.
func findMarkers(template []byte, marker string) ([]cut, error) {
	d := xml.NewDecoder(bytes.NewReader(template))
	d.Entity = xml.HTMLEntity

	var cuts []cut
	for {
		start := d.InputOffset()
		tok, err := d.Token()
		if err == io.EOF {
			return cuts, nil
		}
		if err != nil {
			return nil, err
		}
		se, ok := tok.(xml.StartElement)
		if !ok || se.Name.Local != marker {
			continue
		}
		id, err := markerText(d)
		if err != nil {
			return nil, err
		}
		cuts = append(cuts, cut{offset: int(start), id: id})
	}
}

func markerText(d *xml.Decoder) (string, error) {
	var sb strings.Builder
	depth := 0
	for {
		tok, err := d.Token()
		if err != nil {
			if err == io.EOF {
				err = io.ErrUnexpectedEOF
			}
			return "", fmt.Errorf("reading marker: %w", err)
		}
		switch t := tok.(type) {
		case xml.CharData:
			sb.Write(t)
		case xml.StartElement:
			depth++
		case xml.EndElement:
			if depth == 0 {
				return strings.TrimSpace(sb.String()), nil
			}
			depth--
		}
	}
}
