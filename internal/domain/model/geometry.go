// Package model contains domain models passed between layers.
package model

// Point is a vertex of an OCR polygon, in image pixels.
type Point struct {
	X float64
	Y float64
}

// Box is an axis-aligned bounding rectangle in image pixels; Top < Bottom.
type Box struct {
	Left   float64
	Top    float64
	Right  float64
	Bottom float64
}

// BoxFromPolygon returns the bounding rectangle of pts.
func BoxFromPolygon(pts []Point) Box {
	if len(pts) == 0 {
		return Box{}
	}
	b := Box{Left: pts[0].X, Right: pts[0].X, Top: pts[0].Y, Bottom: pts[0].Y}
	for _, p := range pts[1:] {
		b.Left = min(b.Left, p.X)
		b.Right = max(b.Right, p.X)
		b.Top = min(b.Top, p.Y)
		b.Bottom = max(b.Bottom, p.Y)
	}
	return b
}

// Width of the box.
func (b Box) Width() float64 { return b.Right - b.Left }

// Height of the box.
func (b Box) Height() float64 { return b.Bottom - b.Top }

// Union returns the smallest box covering b and o.
func (b Box) Union(o Box) Box {
	return Box{
		Left:   min(b.Left, o.Left),
		Top:    min(b.Top, o.Top),
		Right:  max(b.Right, o.Right),
		Bottom: max(b.Bottom, o.Bottom),
	}
}

// Detection is one text region returned by the OCR engine.
type Detection struct {
	Text        string
	Confidence  float64 // [0,1]
	Box         Box
	SourceImage string
}
