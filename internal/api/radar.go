package api

import (
	"image/color"
	"net/http"

	"github.com/fogleman/gg"

	"starclash/internal/sim"
)

const (
	radarSize   = 800 // Output image is radarSize x radarSize
	radarExtent = 1e4 // World units mapped onto the image
	radarRings  = 4   // Concentric range rings
)

// renderRadar draws a top-down (X/Z plane) view of the scene and
// writes it as a PNG. Entity markers are scaled down heavily; the
// point is situational awareness, not accuracy.
func renderRadar(w http.ResponseWriter, snap *sim.SceneSnapshot) {
	dc := gg.NewContext(radarSize, radarSize)

	// Background
	dc.SetColor(color.RGBA{8, 10, 20, 255})
	dc.DrawRectangle(0, 0, radarSize, radarSize)
	dc.Fill()

	// Range rings
	center := float64(radarSize) / 2
	dc.SetColor(color.RGBA{30, 60, 40, 255})
	dc.SetLineWidth(1)
	for i := 1; i <= radarRings; i++ {
		dc.DrawCircle(center, center, center*float64(i)/float64(radarRings))
		dc.Stroke()
	}
	dc.DrawLine(0, center, radarSize, center)
	dc.Stroke()
	dc.DrawLine(center, 0, center, radarSize)
	dc.Stroke()

	// world X/Z -> screen, clamped to the image
	toScreen := func(p [3]float64) (float64, float64) {
		x := center + p[0]/radarExtent*center
		y := center + p[2]/radarExtent*center
		return clamp(x, 0, radarSize), clamp(y, 0, radarSize)
	}

	// Asteroids: dim gray, size hints at radius
	dc.SetColor(color.RGBA{110, 100, 90, 255})
	for _, a := range snap.Asteroids {
		x, y := toScreen(a.Position)
		r := a.Radius / radarExtent * center
		if r < 2 {
			r = 2
		}
		dc.DrawCircle(x, y, r)
		dc.Fill()
	}

	// Powerups: green diamonds
	dc.SetColor(color.RGBA{80, 220, 120, 255})
	for _, pu := range snap.Powerups {
		x, y := toScreen(pu.Position)
		dc.DrawRectangle(x-3, y-3, 6, 6)
		dc.Fill()
	}

	// Projectiles: small red dots
	dc.SetColor(color.RGBA{255, 90, 60, 255})
	for _, p := range snap.Projectiles {
		x, y := toScreen(p.Position)
		dc.DrawCircle(x, y, 1.5)
		dc.Fill()
	}

	// Drones: small cyan dots
	dc.SetColor(color.RGBA{90, 200, 255, 255})
	for _, d := range snap.Drones {
		x, y := toScreen(d.Position)
		dc.DrawCircle(x, y, 2.5)
		dc.Fill()
	}

	// Ships: bright markers with name labels
	for _, s := range snap.Ships {
		x, y := toScreen(s.Position)
		if s.HP > 0 {
			dc.SetColor(color.RGBA{255, 230, 80, 255})
		} else {
			dc.SetColor(color.RGBA{120, 120, 120, 255})
		}
		dc.DrawCircle(x, y, 5)
		dc.Fill()
		dc.DrawString(s.Name, x+8, y+4)
	}

	w.Header().Set("Content-Type", "image/png")
	dc.EncodePNG(w)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
