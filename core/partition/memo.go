package partition

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"io"
	"math"

	"github.com/ctessum/geom"

	"github.com/gridscope/gridscope/core/geo"
)

// fingerprint identifies one exact partition input: every site ID and
// coordinate plus every boundary vertex, in order.
func fingerprint(sites []geo.Site, boundary geom.Polygonal) string {
	h := sha256.New()
	buf := make([]byte, 8)
	writeF := func(v float64) {
		binary.LittleEndian.PutUint64(buf, math.Float64bits(v))
		h.Write(buf)
	}
	for _, s := range sites {
		io.WriteString(h, s.ID)
		h.Write([]byte{0})
		writeF(s.Point.X)
		writeF(s.Point.Y)
	}
	for _, poly := range boundary.Polygons() {
		for _, ring := range poly {
			for _, p := range ring {
				writeF(p.X)
				writeF(p.Y)
			}
			h.Write([]byte{1})
		}
		h.Write([]byte{2})
	}
	return hex.EncodeToString(h.Sum(nil))
}
