package raster

// DefaultDarkThreshold is the luminance below which a pixel counts as ink
const DefaultDarkThreshold = 200

// InkProfile returns, for every row, the fraction of pixels whose luminance
// (0.299R + 0.587G + 0.114B) is below threshold. Alpha is ignored.
func InkProfile(s *Surface, threshold float64) []float64 {
	w, h := s.Width(), s.Height()
	ink := make([]float64, h)
	pix, stride := s.img.Pix, s.img.Stride
	for y := 0; y < h; y++ {
		row := pix[y*stride : y*stride+w*4]
		dark := 0
		for i := 0; i < len(row); i += 4 {
			lum := 0.299*float64(row[i]) + 0.587*float64(row[i+1]) + 0.114*float64(row[i+2])
			if lum < threshold {
				dark++
			}
		}
		ink[y] = float64(dark) / float64(w)
	}
	return ink
}
