package geospatial

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"
	"github.com/paulmach/orb/geojson"
)

var ErrNoGeometry = errors.New("no geometry found")

// Shape is the geometry found in a KML document.
type Shape struct {
	Geometry orb.Collection
	Polygons int
	Lines    int
	Points   int
}

type kmlCoordinates struct {
	Coordinates string `xml:"coordinates"`
}

type kmlPolygon struct {
	Outer string   `xml:"outerBoundaryIs>LinearRing>coordinates"`
	Inner []string `xml:"innerBoundaryIs>LinearRing>coordinates"`
}

// ParseKML collects every Polygon, LineString and Point in a KML document,
// wherever it is nested.
func ParseKML(data []byte) (*Shape, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))
	shape := &Shape{}

	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("invalid KML: %w", err)
		}

		start, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}

		switch start.Name.Local {
		case "Polygon":
			var p kmlPolygon
			if err := dec.DecodeElement(&p, &start); err != nil {
				return nil, fmt.Errorf("invalid KML polygon: %w", err)
			}
			polygon, err := toPolygon(p)
			if err != nil {
				return nil, err
			}
			shape.Geometry = append(shape.Geometry, polygon)
			shape.Polygons++
		case "LineString":
			var c kmlCoordinates
			if err := dec.DecodeElement(&c, &start); err != nil {
				return nil, fmt.Errorf("invalid KML line: %w", err)
			}
			points, err := parseCoordinates(c.Coordinates)
			if err != nil {
				return nil, err
			}
			if len(points) < 2 {
				return nil, fmt.Errorf("invalid KML line: need at least 2 points, got %d", len(points))
			}
			shape.Geometry = append(shape.Geometry, orb.LineString(points))
			shape.Lines++
		case "Point":
			var c kmlCoordinates
			if err := dec.DecodeElement(&c, &start); err != nil {
				return nil, fmt.Errorf("invalid KML point: %w", err)
			}
			points, err := parseCoordinates(c.Coordinates)
			if err != nil {
				return nil, err
			}
			if len(points) != 1 {
				return nil, fmt.Errorf("invalid KML point: want 1 coordinate, got %d", len(points))
			}
			shape.Geometry = append(shape.Geometry, points[0])
			shape.Points++
		}
	}

	if len(shape.Geometry) == 0 {
		return nil, ErrNoGeometry
	}
	return shape, nil
}

func toPolygon(p kmlPolygon) (orb.Polygon, error) {
	outer, err := parseRing(p.Outer)
	if err != nil {
		return nil, err
	}
	polygon := orb.Polygon{outer}
	for _, inner := range p.Inner {
		ring, err := parseRing(inner)
		if err != nil {
			return nil, err
		}
		polygon = append(polygon, ring)
	}
	return polygon, nil
}

func parseRing(s string) (orb.Ring, error) {
	points, err := parseCoordinates(s)
	if err != nil {
		return nil, err
	}
	if len(points) < 3 {
		return nil, fmt.Errorf("invalid KML ring: need at least 3 points, got %d", len(points))
	}
	ring := orb.Ring(points)
	if !ring.Closed() {
		ring = append(ring, ring[0])
	}
	return ring, nil
}

// parseCoordinates reads "lon,lat[,alt]" tuples separated by whitespace.
func parseCoordinates(s string) ([]orb.Point, error) {
	var points []orb.Point
	for _, tuple := range strings.Fields(s) {
		parts := strings.Split(tuple, ",")
		if len(parts) < 2 {
			return nil, fmt.Errorf("invalid KML coordinate %q", tuple)
		}
		lon, err := strconv.ParseFloat(parts[0], 64)
		if err != nil {
			return nil, fmt.Errorf("invalid KML longitude %q", parts[0])
		}
		lat, err := strconv.ParseFloat(parts[1], 64)
		if err != nil {
			return nil, fmt.Errorf("invalid KML latitude %q", parts[1])
		}
		if math.IsNaN(lon) || math.IsNaN(lat) || lon < -180 || lon > 180 || lat < -90 || lat > 90 {
			return nil, fmt.Errorf("KML coordinate out of range: %s", tuple)
		}
		points = append(points, orb.Point{lon, lat})
	}
	return points, nil
}

// AreaSqMeters is the geodesic area of the polygons in the shape.
func (s *Shape) AreaSqMeters() float64 {
	var area float64
	for _, g := range s.Geometry {
		if p, ok := g.(orb.Polygon); ok {
			area += math.Abs(geo.Area(p))
		}
	}
	return area
}

// LengthMeters is the geodesic length of the lines in the shape.
func (s *Shape) LengthMeters() float64 {
	var length float64
	for _, g := range s.Geometry {
		if l, ok := g.(orb.LineString); ok {
			length += geo.Length(l)
		}
	}
	return length
}

// Centroid calculates the centroid of the shape's bounding box
func (s *Shape) Centroid() orb.Point {
	return s.Geometry.Bound().Center()
}

// Summary is the JSON-friendly description stored with uploaded KML files.
func (s *Shape) Summary() map[string]any {
	return map[string]any{
		"polygons":     s.Polygons,
		"lines":        s.Lines,
		"points":       s.Points,
		"areaHectares": math.Round(ConvertToHectares(s.AreaSqMeters())*100) / 100,
		"lengthMeters": math.Round(s.LengthMeters()),
		"centroid":     geojson.NewGeometry(s.Centroid()),
	}
}

// ConvertToHectares converts square meters to hectares
func ConvertToHectares(sqMeters float64) float64 {
	return sqMeters / 10000
}
