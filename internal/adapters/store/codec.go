package store

import "encoding/binary"

const (
	historyPrefix  = "h:"
	blobPrefix     = "b:"
	refcountPrefix = "r:"
)

func historyKey(taskKey string) []byte {
	return append([]byte(historyPrefix), taskKey...)
}

func blobKey(hash uint64) []byte {
	return appendHash(blobPrefix, hash)
}

func refcountKey(hash uint64) []byte {
	return appendHash(refcountPrefix, hash)
}

func appendHash(prefix string, hash uint64) []byte {
	buf := make([]byte, len(prefix)+8)
	copy(buf, prefix)
	binary.BigEndian.PutUint64(buf[len(prefix):], hash)
	return buf
}

func decodeRefcount(data []byte) uint64 {
	if len(data) != 8 {
		return 0
	}
	return binary.BigEndian.Uint64(data)
}

func encodeRefcount(n uint64) []byte {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, n)
	return buf
}
