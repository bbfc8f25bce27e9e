package geo

import (
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/pthm-cable/colav/nav"
)

// metres per degree of latitude on the WGS84 sphere used by Web Mercator
const mPerDegLat = 6378137 * math.Pi / 180

func TestNewOrigin_Invalid(t *testing.T) {
	tests := []struct {
		name     string
		lat, lon float64
	}{
		{"polar", 89, 0},
		{"lon", 10, 181},
		{"nan", math.NaN(), 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewOrigin(tt.lat, tt.lon); !errors.Is(err, ErrInvalidOrigin) {
				t.Errorf("err = %v, want ErrInvalidOrigin", err)
			}
		})
	}
}

func TestToWGS84_OriginMapsToItself(t *testing.T) {
	o, err := NewOrigin(59.9, 10.7)
	if err != nil {
		t.Fatal(err)
	}
	lon, lat := o.ToWGS84(nav.Vec2{})
	if math.Abs(lon-10.7) > 1e-9 || math.Abs(lat-59.9) > 1e-9 {
		t.Errorf("origin -> (%v, %v)", lon, lat)
	}
}

func TestToWGS84_Directions(t *testing.T) {
	o, err := NewOrigin(50, 0)
	if err != nil {
		t.Fatal(err)
	}

	// 1 km north moves latitude only.
	lon, lat := o.ToWGS84(nav.Vec2{X: 1000})
	if math.Abs(lon) > 1e-9 {
		t.Errorf("north offset changed longitude to %v", lon)
	}
	if got, want := lat-50, 1000/mPerDegLat; math.Abs(got-want) > 1e-4 {
		t.Errorf("dlat = %v, want ~%v", got, want)
	}

	// 1 km east moves longitude only, by more than at the equator.
	lon, lat = o.ToWGS84(nav.Vec2{Y: 1000})
	if math.Abs(lat-50) > 1e-9 {
		t.Errorf("east offset changed latitude to %v", lat)
	}
	want := 1000 / (mPerDegLat * math.Cos(nav.Rad(50)))
	if math.Abs(lon-want) > 1e-6 {
		t.Errorf("dlon = %v, want %v", lon, want)
	}
}

func TestTrack(t *testing.T) {
	o, err := NewOrigin(0, 0)
	if err != nil {
		t.Fatal(err)
	}

	if !o.Track(nil).IsEmpty() {
		t.Error("empty path should give an empty line string")
	}
	if !o.Track([]nav.Vec2{{}}).IsEmpty() {
		t.Error("single position should give an empty line string")
	}

	path := []nav.Vec2{{X: 0, Y: 0}, {X: 500, Y: 0}, {X: 1000, Y: 200}}
	ls := o.Track(path)
	if n := ls.Coordinates().Length(); n != 3 {
		t.Fatalf("points = %d, want 3", n)
	}
	end := ls.Coordinates().GetXY(2)
	lon, lat := o.ToWGS84(path[2])
	if end.X != lon || end.Y != lat {
		t.Errorf("end = %v, want (%v, %v)", end, lon, lat)
	}

	wkt := o.TrackWKT(path)
	if !strings.HasPrefix(wkt, "LINESTRING") {
		t.Errorf("wkt = %q", wkt)
	}
}
