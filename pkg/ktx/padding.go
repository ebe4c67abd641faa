package ktx

// Padding returns the number of bytes needed to round byteSize up to a
// multiple of PackingSize.
func Padding(byteSize uint64) uint32 {
	return uint32((PackingSize - byteSize%PackingSize) % PackingSize)
}

func padded(byteSize uint64) uint64 {
	return byteSize + uint64(Padding(byteSize))
}
