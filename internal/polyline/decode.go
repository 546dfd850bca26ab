// Package polyline decodes Google's variable-length encoded polyline format
// into ordered (lon, lat) coordinate sequences.
package polyline

import "fmt"

// DefaultPrecision is Google's standard coordinate multiplier (1e5).
const DefaultPrecision = 1e5

// Point is a decoded coordinate carrying the index it held in the source
// polyline. Downstream rasterization (C4) uses Index to forbid drawing
// between samples that were not adjacent in the original encoded string.
type Point struct {
	Lon, Lat float64
	Index    int
}

// MalformedPolylineError reports that an encoded string ended mid-coordinate.
type MalformedPolylineError struct {
	Offset int
}

func (e *MalformedPolylineError) Error() string {
	return fmt.Sprintf("polyline: malformed encoding at byte offset %d: unterminated coordinate", e.Offset)
}

// Decode decodes an encoded polyline string at the default precision (1e5).
func Decode(encoded string) ([]Point, error) {
	return DecodeWithPrecision(encoded, DefaultPrecision)
}

// DecodeWithPrecision decodes an encoded polyline string, dividing accumulated
// integer deltas by precision to produce decimal degrees. Points are returned
// longitude first to match the downstream Web-Mercator geometry.
//
// An empty input yields an empty, non-error result. A stream that ends before
// a continuation byte (>= 0x20) terminates returns MalformedPolylineError.
func DecodeWithPrecision(encoded string, precision float64) ([]Point, error) {
	if len(encoded) == 0 {
		return nil, nil
	}

	points := make([]Point, 0, len(encoded)/4)
	index := 0
	lat, lng := 0, 0

	for index < len(encoded) {
		start := index

		dlat, next, err := decodeValue(encoded, index)
		if err != nil {
			return nil, &MalformedPolylineError{Offset: start}
		}
		index = next
		lat += dlat

		dlng, next, err := decodeValue(encoded, index)
		if err != nil {
			return nil, &MalformedPolylineError{Offset: start}
		}
		index = next
		lng += dlng

		points = append(points, Point{
			Lon:   float64(lng) / precision,
			Lat:   float64(lat) / precision,
			Index: len(points),
		})
	}

	return points, nil
}

// decodeValue reads one zigzag-delta-encoded value starting at index,
// returning the decoded delta and the index just past its terminating byte.
func decodeValue(encoded string, index int) (int, int, error) {
	result, shift := 0, uint(0)

	for {
		if index >= len(encoded) {
			return 0, 0, fmt.Errorf("polyline: unterminated continuation sequence")
		}
		b := int(encoded[index]) - 63
		index++
		result |= (b & 0x1f) << shift
		shift += 5
		if b < 0x20 {
			break
		}
	}

	var delta int
	if result&1 != 0 {
		delta = ^(result >> 1)
	} else {
		delta = result >> 1
	}
	return delta, index, nil
}

// Encode re-encodes decoded points at the given precision. Used by tests to
// verify that decoding and re-encoding a polyline reproduces the original.
func Encode(points []Point, precision float64) string {
	var out []byte
	prevLat, prevLng := 0, 0

	for _, p := range points {
		latInt := int(roundHalfAwayFromZero(p.Lat * precision))
		lngInt := int(roundHalfAwayFromZero(p.Lon * precision))

		out = encodeValue(out, latInt-prevLat)
		out = encodeValue(out, lngInt-prevLng)

		prevLat, prevLng = latInt, lngInt
	}

	return string(out)
}

func encodeValue(out []byte, value int) []byte {
	shifted := value << 1
	if value < 0 {
		shifted = ^shifted
	}

	for shifted >= 0x20 {
		out = append(out, byte((0x20|(shifted&0x1f))+63))
		shifted >>= 5
	}
	out = append(out, byte(shifted+63))
	return out
}

func roundHalfAwayFromZero(v float64) float64 {
	if v < 0 {
		return -roundHalfAwayFromZero(-v)
	}
	return float64(int64(v + 0.5))
}
