package runtime

import (
	"strconv"
	"strings"
)

// Host backs the "ember" import module of compiled programs. Output is
// buffered and returned once the program finishes.
type Host struct {
	out strings.Builder
}

func NewHost() *Host {
	return &Host{}
}

func (h *Host) PrintI64(v int64) {
	h.out.WriteString(strconv.FormatInt(v, 10))
}

// PrintU64 prints the bits of v as an unsigned integer.
func (h *Host) PrintU64(v int64) {
	h.out.WriteString(strconv.FormatUint(uint64(v), 10))
}

func (h *Host) PrintBool(v int64) {
	h.out.WriteString(strconv.FormatBool(v != 0))
}

func (h *Host) PrintSpace() {
	h.out.WriteByte(' ')
}

func (h *Host) PrintNewline() {
	h.out.WriteByte('\n')
}

func (h *Host) Output() string {
	return h.out.String()
}
