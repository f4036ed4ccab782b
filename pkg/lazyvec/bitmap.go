package lazyvec

import (
	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/bitutil"
)

// overlayNulls writes sentinel into out at every position the array marks
// null. The validity bitmap is scanned a byte at a time: fully-set bytes
// are skipped and fully-clear bytes write eight sentinels, so runs of
// valid or null elements avoid per-bit branching.
func overlayNulls[T any](out []T, arr arrow.Array, sentinel T) {
	if arr.NullN() == 0 {
		return
	}
	bm := arr.NullBitmapBytes()
	off := arr.Data().Offset()
	n := len(out)

	j := 0
	for j < n {
		bit := off + j
		if bit%8 == 0 && n-j >= 8 {
			switch bm[bit/8] {
			case 0xFF:
				j += 8
				continue
			case 0x00:
				for k := 0; k < 8; k++ {
					out[j+k] = sentinel
				}
				j += 8
				continue
			}
		}
		if !bitutil.BitIsSet(bm, bit) {
			out[j] = sentinel
		}
		j++
	}
}

// visitValidity calls valid(j) for each valid position and null(j) for
// each null position of the array's first n elements, using the same
// byte-run scan as overlayNulls. Either callback may be nil to skip those
// positions.
func visitValidity(arr arrow.Array, n int, valid func(j int), null func(j int)) {
	if arr.NullN() == 0 {
		if valid != nil {
			for j := 0; j < n; j++ {
				valid(j)
			}
		}
		return
	}
	bm := arr.NullBitmapBytes()
	off := arr.Data().Offset()

	j := 0
	for j < n {
		bit := off + j
		if bit%8 == 0 && n-j >= 8 {
			switch bm[bit/8] {
			case 0xFF:
				if valid != nil {
					for k := 0; k < 8; k++ {
						valid(j + k)
					}
				}
				j += 8
				continue
			case 0x00:
				if null != nil {
					for k := 0; k < 8; k++ {
						null(j + k)
					}
				}
				j += 8
				continue
			}
		}
		if bitutil.BitIsSet(bm, bit) {
			if valid != nil {
				valid(j)
			}
		} else if null != nil {
			null(j)
		}
		j++
	}
}
