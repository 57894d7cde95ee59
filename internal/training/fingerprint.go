package training

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/cespare/xxhash/v2"

	"mmmcli/internal/frame"
	"mmmcli/internal/transform"
)

// inputFingerprint hashes everything a transformed design depends on besides
// the combination: the row count, the ordered (name, role) variable list and
// the values of each variable column.
func inputFingerprint(f *frame.Frame, variables []transform.Variable) string {
	h := xxhash.New()
	var buf [8]byte
	write := func(v uint64) {
		binary.LittleEndian.PutUint64(buf[:], v)
		_, _ = h.Write(buf[:])
	}

	write(uint64(f.Len()))
	for _, v := range variables {
		_, _ = h.WriteString(v.Name)
		_, _ = h.WriteString("\x00")
		_, _ = h.WriteString(string(v.Role))
		_, _ = h.WriteString("\x00")

		col, err := f.Column(v.Name)
		if err != nil {
			_, _ = h.WriteString("\xff")
			continue
		}
		for _, x := range col {
			write(math.Float64bits(x))
		}
	}
	return fmt.Sprintf("%016x", h.Sum64())
}
