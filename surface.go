package kajak

import (
	"fmt"
	"strings"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/kajakengine/kajak/geom"
)

type SurfaceType string

const (
	Asphalt SurfaceType = "ASPHALT"
	Grass   SurfaceType = "GRASS"
	Gravel  SurfaceType = "GRAVEL"
	Ice     SurfaceType = "ICE"
	Mud     SurfaceType = "MUD"
)

// SurfaceProperties scale tyre grip and rolling drag.
type SurfaceProperties struct {
	Grip float64
	Drag float64
}

// Neutral leaves grip and drag unchanged.
var Neutral = SurfaceProperties{Grip: 1, Drag: 1}

var surfaceTable = map[SurfaceType]SurfaceProperties{
	Asphalt: {Grip: 1.0, Drag: 1.0},
	Grass:   {Grip: 0.7, Drag: 1.3},
	Gravel:  {Grip: 0.8, Drag: 1.2},
	Ice:     {Grip: 0.3, Drag: 1.5},
	Mud:     {Grip: 0.5, Drag: 3},
}

func (t SurfaceType) Properties() SurfaceProperties {
	if p, ok := surfaceTable[t]; ok {
		return p
	}
	return surfaceTable[Asphalt]
}

func ParseSurfaceType(s string) (SurfaceType, error) {
	t := SurfaceType(strings.ToUpper(strings.TrimSpace(s)))
	if _, ok := surfaceTable[t]; !ok {
		return "", fmt.Errorf("unknown surface type %q", s)
	}
	return t, nil
}

// Mul combines two property sets.
func (p SurfaceProperties) Mul(o SurfaceProperties) SurfaceProperties {
	return SurfaceProperties{Grip: p.Grip * o.Grip, Drag: p.Drag * o.Drag}
}

// SurfaceSegment is a quad of road material laid along start-end.
type SurfaceSegment struct {
	Type       SurfaceType
	Start, End mgl64.Vec2
	Width      float64
	area       *geom.Collider
}

// SurfaceMap answers which material lies under a point.
type SurfaceMap struct {
	segments []*SurfaceSegment
}

func NewSurfaceMap() *SurfaceMap {
	return &SurfaceMap{}
}

// AddSegment lays a width-wide strip of material from start to end.
func (m *SurfaceMap) AddSegment(start, end mgl64.Vec2, width float64, t SurfaceType) error {
	dir, err := geom.Normalize(end.Sub(start))
	if err != nil {
		return fmt.Errorf("surface segment %v-%v: %w", start, end, err)
	}
	if width <= 0 {
		return fmt.Errorf("surface segment %v-%v: width must be positive", start, end)
	}
	off := geom.Perp(dir).Mul(width / 2)
	area := geom.NewPolygon([]mgl64.Vec2{
		start.Add(off),
		end.Add(off),
		end.Sub(off),
		start.Sub(off),
	})
	m.segments = append(m.segments, &SurfaceSegment{
		Type:  t,
		Start: start,
		End:   end,
		Width: width,
		area:  area,
	})
	return nil
}

func (m *SurfaceMap) Segments() []*SurfaceSegment { return m.segments }

// At returns the material of the first segment containing p, asphalt otherwise.
func (m *SurfaceMap) At(p mgl64.Vec2) SurfaceProperties {
	if m != nil {
		for _, s := range m.segments {
			if s.area.ContainsPoint(p) {
				return s.Type.Properties()
			}
		}
	}
	return Asphalt.Properties()
}
