// Package mapview renders a play session as GeoJSON for map clients: the
// play area, the point to reach, and the player's last in-area position.
package mapview

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/samirrijal/geoquest/internal/core/domain"
)

// Feature kinds, in the "kind" property.
const (
	KindArea     = "area"
	KindWaypoint = "waypoint"
	KindPlayer   = "player"
)

// AreaPolygon returns the normalized play area as a closed ring. GeoJSON
// order is [lon, lat].
func AreaPolygon(a domain.Area) orb.Polygon {
	b := a.Bounds()
	ring := orb.Ring{
		{b.MinLon, b.MaxLat},
		{b.MaxLon, b.MaxLat},
		{b.MaxLon, b.MinLat},
		{b.MinLon, b.MinLat},
		{b.MinLon, b.MaxLat},
	}
	return orb.Polygon{ring}
}

// Session builds the map of one session. The active waypoint is omitted
// once the game is finished; the player marker is omitted until a sample
// has landed inside the area.
func Session(snap domain.SessionSnapshot) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()

	area := geojson.NewFeature(AreaPolygon(snap.Area))
	area.Properties["kind"] = KindArea
	area.Properties["game_id"] = snap.GameID
	if snap.GameName != "" {
		area.Properties["name"] = snap.GameName
	}
	fc.Append(area)

	if snap.Active != nil {
		wp := geojson.NewFeature(orb.Point{snap.Active.Location.Lon, snap.Active.Location.Lat})
		wp.Properties["kind"] = KindWaypoint
		wp.Properties["label"] = "Point to Reach"
		wp.Properties["index"] = snap.State.CurrentIndex
		wp.Properties["points"] = snap.Active.Points
		wp.Properties["unlocked"] = snap.State.AwaitingAnswer
		fc.Append(wp)
	}

	if snap.LastPosition != nil {
		me := geojson.NewFeature(orb.Point{snap.LastPosition.Lon, snap.LastPosition.Lat})
		me.Properties["kind"] = KindPlayer
		me.Properties["label"] = "You are here"
		fc.Append(me)
	}

	return fc
}
