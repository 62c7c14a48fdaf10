package redis

const (
	// KeyPrefix is prepended to every key written by the service
	KeyPrefix = "newsroom/"

	// KeyLiveStream holds the active live stream pointer
	KeyLiveStream = KeyPrefix + "live_stream/active"
)
