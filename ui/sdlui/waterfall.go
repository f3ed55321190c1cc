package sdlui

import (
	"github.com/veandco/go-sdl2/sdl"

	"github.com/chzchzchz/specterm/present"
)

// waterfall is a ring of one-pixel-high textures; the newest row is drawn at
// the bottom.
type waterfall struct {
	r       *sdl.Renderer
	rows    []*sdl.Texture
	rowIdx  int // wraps around
	w       int
	row8888 []byte
	rowRect *sdl.Rect
}

func newWaterfall(r *sdl.Renderer, w, h int) (*waterfall, error) {
	wf := &waterfall{
		r:       r,
		rows:    make([]*sdl.Texture, h),
		w:       w,
		row8888: make([]byte, w*4),
		rowRect: &sdl.Rect{X: 0, Y: 0, W: int32(w), H: 1},
	}
	for i := 0; i < w; i++ {
		wf.row8888[4*i+3] = 0xff
	}
	for i := range wf.rows {
		t, err := r.CreateTexture(sdl.PIXELFORMAT_RGB888, sdl.TEXTUREACCESS_STREAMING, int32(w), 1)
		if err != nil {
			wf.destroy()
			return nil, err
		}
		wf.rows[i] = t
		if err := t.Update(wf.rowRect, wf.row8888, w*4); err != nil {
			wf.destroy()
			return nil, err
		}
	}
	return wf, nil
}

func (wf *waterfall) destroy() {
	for _, t := range wf.rows {
		if t != nil {
			t.Destroy()
		}
	}
}

// blit draws the rows oldest first starting at y.
func (wf *waterfall) blit(y int32) error {
	dst := &sdl.Rect{X: 0, Y: y, W: int32(wf.w), H: 1}
	for i := range wf.rows {
		t := wf.rows[(wf.rowIdx+i)%len(wf.rows)]
		if err := wf.r.Copy(t, wf.rowRect, dst); err != nil {
			return err
		}
		dst.Y++
	}
	return nil
}

func (wf *waterfall) add(levels []float64) error {
	for i := 0; i < wf.w && i < len(levels); i++ {
		c := present.Color(levels[i])
		// RGB888 is little-endian BGRX in memory.
		wf.row8888[4*i] = c.B
		wf.row8888[4*i+1] = c.G
		wf.row8888[4*i+2] = c.R
	}
	err := wf.rows[wf.rowIdx].Update(wf.rowRect, wf.row8888, wf.w*4)
	wf.rowIdx = (wf.rowIdx + 1) % len(wf.rows)
	return err
}
