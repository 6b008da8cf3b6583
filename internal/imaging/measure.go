package imaging

import (
	"image"
	"math"
	"sort"

	colorful "github.com/lucasb-eyer/go-colorful"
)

// maxSamplesPerAxis bounds the sampling grid so large photos measure quickly.
const maxSamplesPerAxis = 256

// ContrastStats summarizes the perceptual lightness distribution of an image.
//
// Lightness is CIE L* scaled to 0-100. A package photo with crisp print shows
// a wide Spread; a washed-out photo clusters around its mean.
type ContrastStats struct {
	// MeanLightness is the average L* of the sampled pixels.
	MeanLightness float64 `json:"mean_lightness"`

	// StdDev is the standard deviation of L*, an RMS contrast measure.
	StdDev float64 `json:"std_dev"`

	// Spread is the distance between the 5th and 95th percentile of L*.
	Spread float64 `json:"spread"`

	// Samples is the number of opaque pixels measured.
	Samples int `json:"samples"`
}

// MeasureContrast samples img on a regular grid and returns lightness statistics.
//
// Fully transparent pixels are skipped. An empty image yields zero stats.
func MeasureContrast(img image.Image) ContrastStats {
	bounds := img.Bounds()
	if bounds.Empty() {
		return ContrastStats{}
	}

	stepX := max(1, bounds.Dx()/maxSamplesPerAxis)
	stepY := max(1, bounds.Dy()/maxSamplesPerAxis)

	values := make([]float64, 0, (bounds.Dx()/stepX+1)*(bounds.Dy()/stepY+1))
	sum := 0.0
	for y := bounds.Min.Y; y < bounds.Max.Y; y += stepY {
		for x := bounds.Min.X; x < bounds.Max.X; x += stepX {
			c, ok := colorful.MakeColor(img.At(x, y))
			if !ok {
				continue
			}
			l, _, _ := c.Lab()
			l *= 100
			values = append(values, l)
			sum += l
		}
	}

	if len(values) == 0 {
		return ContrastStats{}
	}

	mean := sum / float64(len(values))
	variance := 0.0
	for _, v := range values {
		d := v - mean
		variance += d * d
	}
	variance /= float64(len(values))

	sort.Float64s(values)
	p5 := values[int(float64(len(values)-1)*0.05)]
	p95 := values[int(float64(len(values)-1)*0.95)]

	return ContrastStats{
		MeanLightness: mean,
		StdDev:        math.Sqrt(variance),
		Spread:        p95 - p5,
		Samples:       len(values),
	}
}
