package manager

import "encoding/binary"

var configKey = []byte("manager/config")

func peerKey(chain ChainID) []byte {
	buf := make([]byte, 2)
	binary.BigEndian.PutUint16(buf, uint16(chain))
	return append([]byte("manager/peer/"), buf...)
}

func queuedOutboundKey(messageID [32]byte) []byte {
	return append([]byte("manager/queue/outbound/"), messageID[:]...)
}

func queuedInboundKey(digest [32]byte) []byte {
	return append([]byte("manager/queue/inbound/"), digest[:]...)
}
