package aggregator

func handlerKey(id HandlerID) []byte {
	return append([]byte("aggregator/handler/"), id[:]...)
}

func attestationKey(handler HandlerID, digest [32]byte) []byte {
	key := append([]byte("aggregator/attestation/"), handler[:]...)
	return append(key, digest[:]...)
}
