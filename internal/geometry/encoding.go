package geometry

import (
	"encoding/binary"

	"github.com/twpayne/go-geom"
	gjson "github.com/twpayne/go-geom/encoding/geojson"
	"github.com/twpayne/go-geom/encoding/wkb"
)

// Polygon converts the quad into a closed go-geom polygon ring.
func (q Quad) Polygon() (*geom.Polygon, error) {
	ring := make([]geom.Coord, 0, len(q)+1)
	for _, p := range q {
		ring = append(ring, geom.Coord{p.X, p.Y})
	}
	ring = append(ring, geom.Coord{q[0].X, q[0].Y})
	return geom.NewPolygon(geom.XY).SetCoords([][]geom.Coord{ring})
}

// WKB encodes the quad for the footprint column.
func (q Quad) WKB() ([]byte, error) {
	poly, err := q.Polygon()
	if err != nil {
		return nil, err
	}
	return wkb.Marshal(poly, binary.LittleEndian)
}

// GeoJSON renders the quad as a GeoJSON polygon string.
func (q Quad) GeoJSON() (string, error) {
	poly, err := q.Polygon()
	if err != nil {
		return "", err
	}
	b, err := gjson.Marshal(poly)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
