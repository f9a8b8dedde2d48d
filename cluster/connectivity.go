package cluster

// Connectivity selects neighbor connectivity: orthogonal (Conn4) or including diagonals (Conn8).
type Connectivity int

const (
	// Conn4 uses 4-directional connectivity: +x, +y, -x, -y.
	Conn4 Connectivity = iota
	// Conn8 adds the four diagonals.
	Conn8
)

var (
	offsets4 = [][2]int{{1, 0}, {0, 1}, {-1, 0}, {0, -1}}
	offsets8 = [][2]int{{1, 0}, {1, 1}, {0, 1}, {-1, 1}, {-1, 0}, {-1, -1}, {0, -1}, {1, -1}}
)

// Offsets returns the (dcol, drow) neighbor offsets. The slice must not be modified.
func (c Connectivity) Offsets() [][2]int {
	if c == Conn8 {
		return offsets8
	}
	return offsets4
}

func (c Connectivity) String() string {
	if c == Conn8 {
		return "conn8"
	}
	return "conn4"
}

// ParseConnectivity maps "4"/"conn4" and "8"/"conn8"/"diagonal" to a Connectivity.
func ParseConnectivity(s string) (Connectivity, bool) {
	switch s {
	case "4", "conn4":
		return Conn4, true
	case "8", "conn8", "diagonal":
		return Conn8, true
	}
	return Conn4, false
}
