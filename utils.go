package movenet

import "image"

// FixRect Clamps rectangle's bounds to a maxCols x maxRows image
// Helps to avoid out-of-range Region() assertions in OpenCV
func FixRect(r *image.Rectangle, maxCols, maxRows int) {
	if r.Min.X < 0 {
		r.Min.X = 0
	}
	if r.Min.Y < 0 {
		r.Min.Y = 0
	}
	if r.Max.X > maxCols {
		r.Max.X = maxCols
	}
	if r.Max.Y > maxRows {
		r.Max.Y = maxRows
	}
}

// KeypointPoint Converts a normalized keypoint inside box to pixel coordinates of a width x height image
func KeypointPoint(kp Keypoint, box Box, width, height int) image.Point {
	x := box.XMin + kp.X*(box.XMax-box.XMin)
	y := box.YMin + kp.Y*(box.YMax-box.YMin)
	return image.Pt(int(x*float32(width)), int(y*float32(height)))
}
