package telegram

import (
	"bytes"
	"image"
	"image/color"
	"image/draw"
	"image/png"

	"robot-explorer/api/internal/explore"
)

const (
	cellPx   = 16
	maxCells = 64
)

var (
	colUnknown  = color.RGBA{0xee, 0xee, 0xee, 0xff}
	colVisited  = color.RGBA{0x9e, 0xc9, 0x9e, 0xff}
	colHuman    = color.RGBA{0xd3, 0x2f, 0x2f, 0xff}
	colFrontier = color.RGBA{0xff, 0xd5, 0x4f, 0xff}
	colRobot    = color.RGBA{0x19, 0x76, 0xd2, 0xff}
)

// renderMap draws the explored area as a PNG, y growing upwards. Very large
// maps are clipped to a window around the robot.
func renderMap(view explore.MapView, robot explore.Position) ([]byte, error) {
	minX, maxX, minY, maxY := robot.X, robot.X, robot.Y, robot.Y
	grow := func(p explore.Position) {
		minX, maxX = min(minX, p.X), max(maxX, p.X)
		minY, maxY = min(minY, p.Y), max(maxY, p.Y)
	}
	for _, e := range view.Visited {
		grow(e.Position)
	}
	for _, p := range view.Frontier {
		grow(p)
	}
	if maxX-minX+1 > maxCells {
		minX = max(minX, robot.X-maxCells/2)
		maxX = minX + maxCells - 1
	}
	if maxY-minY+1 > maxCells {
		minY = max(minY, robot.Y-maxCells/2)
		maxY = minY + maxCells - 1
	}

	w, h := maxX-minX+1, maxY-minY+1
	img := image.NewRGBA(image.Rect(0, 0, w*cellPx, h*cellPx))
	draw.Draw(img, img.Bounds(), image.NewUniform(colUnknown), image.Point{}, draw.Src)

	fill := func(p explore.Position, c color.Color) {
		if p.X < minX || p.X > maxX || p.Y < minY || p.Y > maxY {
			return
		}
		col := p.X - minX
		row := maxY - p.Y
		r := image.Rect(col*cellPx+1, row*cellPx+1, (col+1)*cellPx-1, (row+1)*cellPx-1)
		draw.Draw(img, r, image.NewUniform(c), image.Point{}, draw.Src)
	}
	for _, p := range view.Frontier {
		fill(p, colFrontier)
	}
	for _, e := range view.Visited {
		if e.HumanDetected {
			fill(e.Position, colHuman)
		} else {
			fill(e.Position, colVisited)
		}
	}
	fill(robot, colRobot)

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
