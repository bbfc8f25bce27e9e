package scenario

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/pthm-cable/colav/nav"
)

// FileProvider loads scenarios from YAML files. An identifier is either a
// path to a .yaml/.yml file or a base name looked up in Dir.
type FileProvider struct {
	Dir string
}

type fileScenario struct {
	Name        string      `yaml:"name"`
	Description string      `yaml:"description"`
	Own         fileOwn     `yaml:"own"`
	Waypoints   []filePoint `yaml:"waypoints"`
	Targets     []fileTgt   `yaml:"targets"`
}

type fileOwn struct {
	X           float64 `yaml:"x"`
	Y           float64 `yaml:"y"`
	HeadingDeg  float64 `yaml:"heading_deg"`
	Speed       float64 `yaml:"speed"`
	CruiseSpeed float64 `yaml:"cruise_speed"`
	Length      float64 `yaml:"length"`
	Beam        float64 `yaml:"beam"`
}

type filePoint struct {
	X float64 `yaml:"x"`
	Y float64 `yaml:"y"`
}

type fileTgt struct {
	ID             int     `yaml:"id"`
	Name           string  `yaml:"name"`
	X              float64 `yaml:"x"`
	Y              float64 `yaml:"y"`
	HeadingDeg     float64 `yaml:"heading_deg"`
	Speed          float64 `yaml:"speed"`
	TurnRateDeg    float64 `yaml:"turn_rate_deg_s"`
	Length         float64 `yaml:"length"`
	Beam           float64 `yaml:"beam"`
	SafetyDistance float64 `yaml:"safety_distance"`
}

func (p FileProvider) Scenario(id string) (*Scenario, error) {
	path := id
	ext := strings.ToLower(filepath.Ext(id))
	if ext != ".yaml" && ext != ".yml" {
		if p.Dir == "" {
			return nil, fmt.Errorf("%w: %q", ErrUnknownScenario, id)
		}
		path = filepath.Join(p.Dir, id+".yaml")
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %q", ErrUnknownScenario, id)
	}
	if err != nil {
		return nil, fmt.Errorf("reading scenario: %w", err)
	}
	s, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("scenario %s: %w", path, err)
	}
	s.ID = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	if s.Name == "" {
		s.Name = s.ID
	}
	return s, s.Validate()
}

// Parse decodes a YAML scenario. Angles are in degrees.
func Parse(data []byte) (*Scenario, error) {
	var f fileScenario
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing scenario: %w", err)
	}

	s := &Scenario{
		Name:        f.Name,
		Description: f.Description,
		Own: Own{
			Pos:         nav.Vec2{X: f.Own.X, Y: f.Own.Y},
			Heading:     nav.WrapAngle(nav.Rad(f.Own.HeadingDeg)),
			Speed:       f.Own.Speed,
			CruiseSpeed: f.Own.CruiseSpeed,
			Length:      f.Own.Length,
			Beam:        f.Own.Beam,
		},
	}
	if s.Own.CruiseSpeed == 0 {
		s.Own.CruiseSpeed = s.Own.Speed
	}
	for _, w := range f.Waypoints {
		s.Waypoints = append(s.Waypoints, nav.Vec2{X: w.X, Y: w.Y})
	}
	for i, t := range f.Targets {
		id := t.ID
		if id == 0 {
			id = i + 1
		}
		s.Targets = append(s.Targets, Target{
			ID:             id,
			Name:           t.Name,
			Pos:            nav.Vec2{X: t.X, Y: t.Y},
			Heading:        nav.WrapAngle(nav.Rad(t.HeadingDeg)),
			Speed:          t.Speed,
			TurnRate:       nav.Rad(t.TurnRateDeg),
			Length:         t.Length,
			Beam:           t.Beam,
			SafetyDistance: t.SafetyDistance,
		})
	}
	return s, nil
}
