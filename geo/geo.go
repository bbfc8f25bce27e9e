// Package geo anchors the local simulation frame on the globe.
//
// The local frame is metres with x north and y east. Positions are placed on
// the chart through Web Mercator (EPSG:3857): the origin is projected, the
// local offset is added in projected metres, and the result is transformed
// back to WGS84 longitude/latitude (EPSG:4326).
package geo

import (
	"errors"
	"math"

	geom "github.com/peterstace/simplefeatures/geom"
	"github.com/wroge/wgs84"

	"github.com/pthm-cable/colav/nav"
)

// ErrInvalidOrigin is returned for an origin outside the Mercator domain.
var ErrInvalidOrigin = errors.New("geo: invalid origin")

// maxLat is the latitude limit of Web Mercator.
const maxLat = 85.05112878

var (
	toMercator = wgs84.EPSG().Transform(4326, 3857)
	toLonLat   = wgs84.EPSG().Transform(3857, 4326)
)

// Origin is the WGS84 position of the local frame's (0, 0).
type Origin struct {
	Lat, Lon float64

	x, y  float64 // projected origin
	scale float64 // projected metres per local metre
}

// NewOrigin projects an origin once so conversions stay cheap.
func NewOrigin(lat, lon float64) (Origin, error) {
	if math.IsNaN(lat) || math.IsNaN(lon) || math.Abs(lat) > maxLat || math.Abs(lon) > 180 {
		return Origin{}, ErrInvalidOrigin
	}
	x, y, _ := toMercator(lon, lat, 0)
	return Origin{
		Lat:   lat,
		Lon:   lon,
		x:     x,
		y:     y,
		scale: 1 / math.Cos(nav.Rad(lat)),
	}, nil
}

// Mercator returns the EPSG:3857 coordinates of a local position.
func (o Origin) Mercator(p nav.Vec2) (x, y float64) {
	return o.x + p.Y*o.scale, o.y + p.X*o.scale
}

// ToWGS84 converts a local position to longitude and latitude in degrees.
func (o Origin) ToWGS84(p nav.Vec2) (lon, lat float64) {
	x, y := o.Mercator(p)
	lon, lat, _ = toLonLat(x, y, 0)
	return lon, lat
}

// Point returns a local position as a lon/lat point.
func (o Origin) Point(p nav.Vec2) geom.Point {
	lon, lat := o.ToWGS84(p)
	return geom.NewPoint(geom.Coordinates{
		XY:   geom.XY{X: lon, Y: lat},
		Type: geom.DimXY,
	})
}

// Track builds a lon/lat line string through the given local positions.
// Fewer than two positions give an empty line string.
func (o Origin) Track(path []nav.Vec2) geom.LineString {
	if len(path) < 2 {
		return geom.LineString{}
	}
	flat := make([]float64, 0, len(path)*2)
	for _, p := range path {
		lon, lat := o.ToWGS84(p)
		flat = append(flat, lon, lat)
	}
	return geom.NewLineString(geom.NewSequence(flat, geom.DimXY))
}

// TrackWKT is Track rendered as well-known text.
func (o Origin) TrackWKT(path []nav.Vec2) string {
	return o.Track(path).AsText()
}
