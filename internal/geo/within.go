package geo

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

// Within reports whether every vertex of g falls inside the area geometry.
// Building footprints are small relative to any query area, so a vertex test
// is equivalent to a full containment test for practical purposes.
func Within(g orb.Geometry, area orb.Geometry) bool {
	if g == nil || area == nil {
		return false
	}
	contains := containsFunc(area)
	if contains == nil {
		return false
	}
	inside := true
	eachPoint(g, func(p orb.Point) {
		if inside && !contains(p) {
			inside = false
		}
	})
	return inside
}

func containsFunc(area orb.Geometry) func(orb.Point) bool {
	switch a := area.(type) {
	case orb.Ring:
		return func(p orb.Point) bool { return planar.RingContains(a, p) }
	case orb.Polygon:
		return func(p orb.Point) bool { return planar.PolygonContains(a, p) }
	case orb.MultiPolygon:
		return func(p orb.Point) bool { return planar.MultiPolygonContains(a, p) }
	case orb.Bound:
		return func(p orb.Point) bool { return a.Contains(p) }
	case orb.Collection:
		funcs := make([]func(orb.Point) bool, 0, len(a))
		for _, member := range a {
			if f := containsFunc(member); f != nil {
				funcs = append(funcs, f)
			}
		}
		if len(funcs) == 0 {
			return nil
		}
		return func(p orb.Point) bool {
			for _, f := range funcs {
				if f(p) {
					return true
				}
			}
			return false
		}
	default:
		return nil
	}
}

func eachPoint(g orb.Geometry, visit func(orb.Point)) {
	switch v := g.(type) {
	case orb.Point:
		visit(v)
	case orb.MultiPoint:
		for _, p := range v {
			visit(p)
		}
	case orb.LineString:
		for _, p := range v {
			visit(p)
		}
	case orb.MultiLineString:
		for _, ls := range v {
			eachPoint(ls, visit)
		}
	case orb.Ring:
		eachPoint(orb.LineString(v), visit)
	case orb.Polygon:
		for _, r := range v {
			eachPoint(r, visit)
		}
	case orb.MultiPolygon:
		for _, p := range v {
			eachPoint(p, visit)
		}
	case orb.Collection:
		for _, member := range v {
			eachPoint(member, visit)
		}
	case orb.Bound:
		eachPoint(v.ToPolygon(), visit)
	}
}
