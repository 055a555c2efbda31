package viz

import (
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/text"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
)

var labelFace font.Face = basicfont.Face7x13

// executeOps replays a draw-command list onto the screen in order.
// The background op repaints the whole surface, so every frame starts
// from scratch.
func executeOps(screen *ebiten.Image, background *ebiten.Image, ops []DrawOp) {
	for _, op := range ops {
		switch op.Kind {
		case OpBackground:
			screen.Fill(color.White)
			if background != nil {
				screen.DrawImage(background, nil)
			}
		case OpDisc:
			vector.FillCircle(screen, float32(op.X), float32(op.Y), float32(op.Radius), op.Color, true)
		case OpRing:
			vector.StrokeCircle(screen, float32(op.X), float32(op.Y), float32(op.Radius), float32(op.Stroke), op.Color, true)
		case OpLine:
			vector.StrokeLine(screen, float32(op.X), float32(op.Y), float32(op.X2), float32(op.Y2), float32(op.Stroke), op.Color, true)
		case OpText:
			drawCenteredText(screen, op.Text, int(op.X), int(op.Y), op.Color)
		}
	}
}

// drawCenteredText draws s centered on (x, y). Empty strings draw
// nothing.
func drawCenteredText(screen *ebiten.Image, s string, x, y int, clr color.RGBA) {
	if s == "" {
		return
	}
	b := text.BoundString(labelFace, s)
	text.Draw(screen, s, labelFace, x-b.Dx()/2-b.Min.X, y-b.Dy()/2-b.Min.Y, clr)
}
