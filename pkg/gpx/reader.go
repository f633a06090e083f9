// Package gpx reads GPX track files incrementally.
//
// The reader walks the document with encoding/xml's tokenizer and tracks its
// position with an explicit element state machine, so malformed or truncated
// documents fail as soon as the offending element is reached. GPX routes and
// tracks are treated synonymously, except that tracks may also contain
// segments.
package gpx

import (
	"encoding/xml"
	"errors"
	"io"
	"strconv"
	"strings"

	"github.com/mshroyer/coursepointer/pkg/util"
)

// ItemKind discriminates the items emitted by Reader.Next.
type ItemKind int

const (
	// ItemRoute marks the start of a track or route. Subsequent names and
	// points belong to it.
	ItemRoute ItemKind = iota
	// ItemRouteName carries the display name of the current track or route.
	ItemRouteName
	// ItemRoutePoint is a point along the current track or route, in order
	// of traversal.
	ItemRoutePoint
	// ItemWaypoint is a named waypoint, global to the document.
	ItemWaypoint
)

// Item is one element of interest parsed from a GPX document.
type Item struct {
	Kind     ItemKind
	Name     string // route name, or waypoint name
	Lat, Lon float64
	Ele      float64
	HasEle   bool
	Cmt      string
	Sym      string
	Type     string
}

type state int

const (
	stateStart state = iota // before the gpx root element
	stateGpx
	stateRoute // inside trk or rte
	stateRouteName
	stateTrkseg
	statePoint // inside trkpt or rtept
	statePointEle
	stateWpt
	stateWptName
	stateWptEle
	stateWptCmt
	stateWptSym
	stateWptType
)

// pendingPoint accumulates the fields of the trkpt, rtept, or wpt element
// currently open. Emitted, and validated, when the element closes.
type pendingPoint struct {
	lat, lon   string
	hasLat     bool
	hasLon     bool
	ele        float64
	hasEle     bool
	name       strings.Builder
	hasName    bool
	cmt        string
	sym        string
	typ        string
	isWaypoint bool
	fromTrkseg bool
}

// Reader is an incremental reader for GPX track files. Obtain items in
// document order by calling Next until it returns io.EOF.
type Reader struct {
	dec       *xml.Decoder
	state     state
	skipDepth int // >0 while inside an unrecognized element
	pending   pendingPoint
	routeName strings.Builder
	creator   string
}

func NewReader(r io.Reader) *Reader {
	return &Reader{
		dec:   xml.NewDecoder(r),
		state: stateStart,
	}
}

// Creator returns the creator attribute of the document's root element.
// Empty until the root element has been read, which happens no later than
// the first call to Next that returns an item.
func (r *Reader) Creator() string {
	return r.creator
}

// Next returns the next item of interest, io.EOF at the end of the document,
// or an error coded util.ErrInvalidDocument for malformed input.
func (r *Reader) Next() (Item, error) {
	for {
		tok, err := r.dec.Token()
		if err != nil {
			if err == io.EOF {
				return Item{}, io.EOF
			}
			return Item{}, invalidDocument(err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			if r.skipDepth > 0 {
				r.skipDepth++
				continue
			}
			item, emit, err := r.startElement(t)
			if err != nil {
				return Item{}, err
			}
			if emit {
				return item, nil
			}

		case xml.EndElement:
			if r.skipDepth > 0 {
				r.skipDepth--
				continue
			}
			item, emit, err := r.endElement()
			if err != nil {
				return Item{}, err
			}
			if emit {
				return item, nil
			}

		case xml.CharData:
			if r.skipDepth > 0 {
				continue
			}
			r.charData(t)
		}
	}
}

func (r *Reader) startElement(t xml.StartElement) (Item, bool, error) {
	name := t.Name.Local
	switch r.state {
	case stateStart:
		if name == "gpx" {
			for _, attr := range t.Attr {
				if attr.Name.Local == "creator" {
					r.creator = attr.Value
				}
			}
			r.state = stateGpx
			return Item{}, false, nil
		}

	case stateGpx:
		switch name {
		case "trk", "rte":
			r.state = stateRoute
			return Item{Kind: ItemRoute}, true, nil
		case "wpt":
			r.state = stateWpt
			r.pending = pendingPoint{isWaypoint: true}
			r.pointAttrs(t)
			return Item{}, false, nil
		}

	case stateRoute:
		switch name {
		case "name":
			r.state = stateRouteName
			r.routeName.Reset()
			return Item{}, false, nil
		case "trkseg":
			r.state = stateTrkseg
			return Item{}, false, nil
		case "rtept":
			r.state = statePoint
			r.pending = pendingPoint{}
			r.pointAttrs(t)
			return Item{}, false, nil
		}

	case stateTrkseg:
		if name == "trkpt" {
			r.state = statePoint
			r.pending = pendingPoint{fromTrkseg: true}
			r.pointAttrs(t)
			return Item{}, false, nil
		}

	case statePoint:
		if name == "ele" {
			r.state = statePointEle
			return Item{}, false, nil
		}

	case stateWpt:
		switch name {
		case "name":
			r.state = stateWptName
			return Item{}, false, nil
		case "ele":
			r.state = stateWptEle
			return Item{}, false, nil
		case "cmt":
			r.state = stateWptCmt
			return Item{}, false, nil
		case "sym":
			r.state = stateWptSym
			return Item{}, false, nil
		case "type":
			r.state = stateWptType
			return Item{}, false, nil
		}
	}

	// Anything unrecognized for the current state is skipped wholesale,
	// including any name/ele elements nested within it.
	r.skipDepth = 1
	return Item{}, false, nil
}

func (r *Reader) endElement() (Item, bool, error) {
	switch r.state {
	case stateGpx:
		r.state = stateStart

	case stateRoute:
		r.state = stateGpx

	case stateRouteName:
		r.state = stateRoute
		return Item{Kind: ItemRouteName, Name: r.routeName.String()}, true, nil

	case stateTrkseg:
		r.state = stateRoute

	case statePoint:
		if r.pending.fromTrkseg {
			r.state = stateTrkseg
		} else {
			r.state = stateRoute
		}
		return r.finishPoint()

	case statePointEle:
		r.state = statePoint

	case stateWpt:
		r.state = stateGpx
		return r.finishPoint()

	case stateWptName, stateWptEle, stateWptCmt, stateWptSym, stateWptType:
		r.state = stateWpt
	}
	return Item{}, false, nil
}

func (r *Reader) charData(t xml.CharData) {
	switch r.state {
	case stateRouteName:
		r.routeName.Write(t)
	case statePointEle, stateWptEle:
		if v, err := strconv.ParseFloat(strings.TrimSpace(string(t)), 64); err == nil {
			r.pending.ele = v
			r.pending.hasEle = true
		}
	case stateWptName:
		r.pending.name.Write(t)
		r.pending.hasName = true
	case stateWptCmt:
		r.pending.cmt += string(t)
	case stateWptSym:
		r.pending.sym += string(t)
	case stateWptType:
		r.pending.typ += string(t)
	}
}

func (r *Reader) pointAttrs(t xml.StartElement) {
	for _, attr := range t.Attr {
		switch attr.Name.Local {
		case "lat":
			r.pending.lat = attr.Value
			r.pending.hasLat = true
		case "lon":
			r.pending.lon = attr.Value
			r.pending.hasLon = true
		}
	}
}

func (r *Reader) finishPoint() (Item, bool, error) {
	kind := "trackpoint"
	if r.pending.isWaypoint {
		kind = "waypoint"
	}
	if !r.pending.hasLat {
		return Item{}, false, util.WrapErrorf(nil, util.ErrInvalidDocument,
			"%s missing lat attribute", kind)
	}
	if !r.pending.hasLon {
		return Item{}, false, util.WrapErrorf(nil, util.ErrInvalidDocument,
			"%s missing lon attribute", kind)
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(r.pending.lat), 64)
	if err != nil {
		return Item{}, false, util.WrapErrorf(err, util.ErrInvalidDocument,
			"%s lat attribute is not numeric", kind)
	}
	lon, err := strconv.ParseFloat(strings.TrimSpace(r.pending.lon), 64)
	if err != nil {
		return Item{}, false, util.WrapErrorf(err, util.ErrInvalidDocument,
			"%s lon attribute is not numeric", kind)
	}

	item := Item{
		Lat:    lat,
		Lon:    lon,
		Ele:    r.pending.ele,
		HasEle: r.pending.hasEle,
	}
	if r.pending.isWaypoint {
		// The GPX 1.1 schema doesn't strictly require waypoints to have a
		// name, but for our purposes this is a requirement.
		if !r.pending.hasName {
			return Item{}, false, util.WrapErrorf(nil, util.ErrInvalidDocument,
				"waypoint missing name")
		}
		item.Kind = ItemWaypoint
		item.Name = r.pending.name.String()
		item.Cmt = r.pending.cmt
		item.Sym = r.pending.sym
		item.Type = r.pending.typ
	} else {
		item.Kind = ItemRoutePoint
	}
	return item, true, nil
}

// invalidDocument classifies tokenizer failures: malformed markup is a schema
// problem, anything else is a genuine read error from the underlying stream.
func invalidDocument(err error) error {
	var syntaxErr *xml.SyntaxError
	if errors.As(err, &syntaxErr) || errors.Is(err, io.ErrUnexpectedEOF) {
		return util.WrapErrorf(err, util.ErrInvalidDocument, "parsing GPX markup")
	}
	return util.WrapErrorf(err, util.ErrReadingInput, "reading GPX input")
}
