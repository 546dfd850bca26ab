// Package composite alpha-blends per-activity-type tile layers into a single
// image, for the split_by=activity_type rendering mode where each activity
// type is rasterized and colored independently before being stacked.
package composite

import (
	"fmt"
	"image"
	"image/color"
	"math"
	"sort"
)

// DefaultOrder is used when the caller does not care about stacking order:
// layers are composited alphabetically by activity type, so output is
// deterministic regardless of map iteration order.
func DefaultOrder(layers map[string]image.Image) []string {
	order := make([]string, 0, len(layers))
	for k := range layers {
		order = append(order, k)
	}
	sort.Strings(order)
	return order
}

// Layers stacks per-activity-type tile layers into a single tile using alpha
// blending. Layers are drawn in the given order (or DefaultOrder(layers) if
// order is nil); every layer must be tileSize x tileSize.
func Layers(layers map[string]image.Image, order []string, tileSize int) (*image.NRGBA, error) {
	if tileSize <= 0 {
		return nil, fmt.Errorf("tile size must be positive")
	}

	if order == nil {
		order = DefaultOrder(layers)
	}

	expectedBounds := image.Rect(0, 0, tileSize, tileSize)
	dst := image.NewNRGBA(expectedBounds)

	for _, layer := range order {
		img := layers[layer]
		if img == nil {
			continue
		}

		if img.Bounds() != expectedBounds {
			return nil, fmt.Errorf("layer %s bounds %v do not match expected %v", layer, img.Bounds(), expectedBounds)
		}

		alphaOver(dst, img)
	}

	return dst, nil
}

// LayersOverBase is Layers but composites onto a pre-filled base image
// instead of a blank tile.
func LayersOverBase(base image.Image, layers map[string]image.Image, order []string, tileSize int) (*image.NRGBA, error) {
	if tileSize <= 0 {
		return nil, fmt.Errorf("tile size must be positive")
	}

	if order == nil {
		order = DefaultOrder(layers)
	}

	expectedBounds := image.Rect(0, 0, tileSize, tileSize)
	dst := image.NewNRGBA(expectedBounds)

	if base != nil {
		if base.Bounds() != expectedBounds {
			return nil, fmt.Errorf("base bounds %v do not match expected %v", base.Bounds(), expectedBounds)
		}
		for y := expectedBounds.Min.Y; y < expectedBounds.Max.Y; y++ {
			for x := expectedBounds.Min.X; x < expectedBounds.Max.X; x++ {
				dst.Set(x, y, base.At(x, y))
			}
		}
	}

	for _, layer := range order {
		img := layers[layer]
		if img == nil {
			continue
		}

		if img.Bounds() != expectedBounds {
			return nil, fmt.Errorf("layer %s bounds %v do not match expected %v", layer, img.Bounds(), expectedBounds)
		}

		alphaOver(dst, img)
	}

	return dst, nil
}

func alphaOver(dst *image.NRGBA, src image.Image) {
	bounds := dst.Bounds()

	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			s := color.NRGBAModel.Convert(src.At(x, y)).(color.NRGBA)
			if s.A == 0 {
				continue
			}

			d := dst.NRGBAAt(x, y)

			sa := float64(s.A) / 255.0
			da := float64(d.A) / 255.0

			outA := sa + da*(1.0-sa)
			if outA == 0 {
				dst.SetNRGBA(x, y, color.NRGBA{})
				continue
			}

			blend := func(srcVal, dstVal uint8) uint8 {
				srcPremult := float64(srcVal) * sa
				dstPremult := float64(dstVal) * da
				outPremult := srcPremult + dstPremult*(1.0-sa)
				return uint8(math.Round(outPremult / outA))
			}

			dst.SetNRGBA(x, y, color.NRGBA{
				R: blend(s.R, d.R),
				G: blend(s.G, d.G),
				B: blend(s.B, d.B),
				A: uint8(math.Round(outA * 255.0)),
			})
		}
	}
}
