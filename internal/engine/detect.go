package engine

var (
	zipSig = [2]byte{0x50, 0x4B}
	cfbSig = [4]byte{0xD0, 0xCF, 0x11, 0xE0}
)

type fileFormat int

const (
	formatUnknown fileFormat = iota
	formatOOXML
	formatLegacy
)

// detectFormat reads the first four bytes' magic to decide which
// container pipeline handles the file.
func detectFormat(data []byte) fileFormat {
	if len(data) < 4 {
		return formatUnknown
	}
	if data[0] == zipSig[0] && data[1] == zipSig[1] {
		return formatOOXML
	}
	if data[0] == cfbSig[0] && data[1] == cfbSig[1] && data[2] == cfbSig[2] && data[3] == cfbSig[3] {
		return formatLegacy
	}
	return formatUnknown
}
