// Package gamedata reads and writes the game data document served by game
// authors:
//
//	{"area": {"x1": "43.25", "y1": "-2.95", "x2": "43.27", "y2": "-2.92"},
//	 "points_to_reach": [{"x": "43.26", "y": "-2.93", "question": "...", "answer": "...", "points": "10"}]}
//
// Numbers travel as strings; plain JSON numbers are accepted too.
package gamedata

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/samirrijal/geoquest/internal/core/domain"
)

// Document is the wire shape of a game bundle.
type Document struct {
	Name          string     `json:"name,omitempty"`
	Area          AreaDoc    `json:"area"`
	PointsToReach []PointDoc `json:"points_to_reach"`
}

type AreaDoc struct {
	X1 Number `json:"x1"`
	Y1 Number `json:"y1"`
	X2 Number `json:"x2"`
	Y2 Number `json:"y2"`
}

type PointDoc struct {
	X        Number `json:"x"`
	Y        Number `json:"y"`
	Question string `json:"question"`
	Answer   string `json:"answer"`
	Points   Number `json:"points"`
}

// Number holds the raw text of a numeric field, quoted or not.
type Number string

// UnmarshalJSON accepts "12.5" and 12.5 alike.
func (n *Number) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*n = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*n = Number(s)
		return nil
	}
	var num json.Number
	if err := json.Unmarshal(b, &num); err != nil {
		return fmt.Errorf("expected number or numeric string, got %s", b)
	}
	*n = Number(num.String())
	return nil
}

// Float parses the number as a float64.
func (n Number) Float() (float64, error) {
	return strconv.ParseFloat(strings.TrimSpace(string(n)), 64)
}

// Int parses the number as an integer.
func (n Number) Int() (int, error) {
	return strconv.Atoi(strings.TrimSpace(string(n)))
}

// Decode parses a document and converts it to a bundle. Any failure wraps
// domain.ErrDataLoadFailure.
func Decode(r io.Reader) (*domain.GameBundle, error) {
	var doc Document
	dec := json.NewDecoder(r)
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: parse game data: %v", domain.ErrDataLoadFailure, err)
	}
	bundle, err := doc.Bundle()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrDataLoadFailure, err)
	}
	return bundle, nil
}

// Bundle converts the wire document into a validated domain bundle.
func (d *Document) Bundle() (*domain.GameBundle, error) {
	var area domain.Area
	corners := []struct {
		name string
		raw  Number
		dst  *float64
	}{
		{"area.x1", d.Area.X1, &area.X1},
		{"area.y1", d.Area.Y1, &area.Y1},
		{"area.x2", d.Area.X2, &area.X2},
		{"area.y2", d.Area.Y2, &area.Y2},
	}
	for _, c := range corners {
		v, err := c.raw.Float()
		if err != nil {
			return nil, fmt.Errorf("%s: invalid number %q", c.name, c.raw)
		}
		*c.dst = v
	}

	waypoints := make([]domain.Waypoint, 0, len(d.PointsToReach))
	for i, p := range d.PointsToReach {
		lat, err := p.X.Float()
		if err != nil {
			return nil, fmt.Errorf("points_to_reach[%d].x: invalid number %q", i, p.X)
		}
		lon, err := p.Y.Float()
		if err != nil {
			return nil, fmt.Errorf("points_to_reach[%d].y: invalid number %q", i, p.Y)
		}
		pts, err := p.Points.Int()
		if err != nil {
			return nil, fmt.Errorf("points_to_reach[%d].points: invalid integer %q", i, p.Points)
		}
		waypoints = append(waypoints, domain.Waypoint{
			Lat:      lat,
			Lon:      lon,
			Question: p.Question,
			Answer:   p.Answer,
			Points:   pts,
		})
	}

	bundle := &domain.GameBundle{Name: d.Name, Area: area, Waypoints: waypoints}
	if err := bundle.Validate(); err != nil {
		return nil, err
	}
	return bundle, nil
}

// FromBundle builds the wire document for a bundle.
func FromBundle(b *domain.GameBundle) *Document {
	doc := &Document{
		Name: b.Name,
		Area: AreaDoc{
			X1: formatFloat(b.Area.X1),
			Y1: formatFloat(b.Area.Y1),
			X2: formatFloat(b.Area.X2),
			Y2: formatFloat(b.Area.Y2),
		},
		PointsToReach: make([]PointDoc, 0, len(b.Waypoints)),
	}
	for _, w := range b.Waypoints {
		doc.PointsToReach = append(doc.PointsToReach, PointDoc{
			X:        formatFloat(w.Lat),
			Y:        formatFloat(w.Lon),
			Question: w.Question,
			Answer:   w.Answer,
			Points:   Number(strconv.Itoa(w.Points)),
		})
	}
	return doc
}

// Encode writes the bundle in wire format.
func Encode(w io.Writer, b *domain.GameBundle) error {
	return json.NewEncoder(w).Encode(FromBundle(b))
}

func formatFloat(v float64) Number {
	return Number(strconv.FormatFloat(v, 'f', -1, 64))
}
