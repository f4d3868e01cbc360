package geometry

// Point is a planar image coordinate (pixels), not a geographic position.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Quad is the four ordered corners of a reference region.
// Corners are walked in order and the last one connects back to the first.
type Quad [4]Point

// Points returns the corners as a slice for the polygon helpers.
func (q Quad) Points() []Point {
	return q[:]
}

// Centroid returns the arithmetic mean of the four corners.
func (q Quad) Centroid() Point {
	return Centroid(q.Points())
}

// Contains reports whether pt is inside the quad by ray casting.
func (q Quad) Contains(pt Point) bool {
	return PointInPolygon(pt, q.Points())
}

// Centroid averages x and y independently over the vertices.
// An empty slice yields the zero point.
func Centroid(pts []Point) Point {
	if len(pts) == 0 {
		return Point{}
	}
	var sumX, sumY float64
	for _, p := range pts {
		sumX += p.X
		sumY += p.Y
	}
	n := float64(len(pts))
	return Point{X: sumX / n, Y: sumY / n}
}

// PointInPolygon is the even-odd ray casting test: a ray is cast to the right of pt and
// every edge it crosses toggles the result. Points exactly on the boundary land on
// whichever side the arithmetic happens to produce.
func PointInPolygon(pt Point, poly []Point) bool {
	inside := false
	n := len(poly)
	for i, j := 0, n-1; i < n; j, i = i, i+1 {
		xi, yi := poly[i].X, poly[i].Y
		xj, yj := poly[j].X, poly[j].Y

		if (yi > pt.Y) != (yj > pt.Y) &&
			pt.X < (xj-xi)*(pt.Y-yi)/(yj-yi)+xi {
			inside = !inside
		}
	}
	return inside
}
