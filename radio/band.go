package radio

import "fmt"

// HzBand is a frequency span described by its center and width.
type HzBand struct {
	Center uint64 `json:"center_hz"`
	Width  uint64 `json:"width_hz"`
}

func (hzb HzBand) BeginHz() float64 { return float64(hzb.Center) - float64(hzb.Width)/2.0 }
func (hzb HzBand) EndHz() float64   { return float64(hzb.Center) + float64(hzb.Width)/2.0 }

// Contains reports whether hz falls inside the band, edges included.
func (hzb HzBand) Contains(hz float64) bool {
	return hz >= hzb.BeginHz() && hz <= hzb.EndHz()
}

func (hzb HzBand) String() string {
	return fmt.Sprintf("[%.6g,%.6g]MHz", hzb.BeginHz()/1e6, hzb.EndHz()/1e6)
}
