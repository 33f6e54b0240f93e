package constants

// Default network and lifecycle values
const (
	DefaultListenAddr          = ":8082"
	DefaultHTTPTimeoutSec      = 30
	DefaultProviderTimeoutSec  = 30
	DefaultPushTimeoutSec      = 10
	DefaultGracefulShutdownSec = 30

	DefaultServerReadTimeoutSec  = 15
	DefaultServerWriteTimeoutSec = 15
	DefaultServerIdleTimeoutSec  = 60
)

// Default startup retry values (registry backend only; core relay
// operations never retry)
const (
	DefaultRetryBackoffMs        = 1000
	DefaultMaxBackoffMs          = 60000
	DefaultRegistryRetryAttempts = 3
)

// Fetch window defaults, in calendar days
const (
	DefaultFetchWindowDays  = 90
	DefaultFetchLookahead   = 1
	DefaultFetchResultLimit = 9999
)

// Privacy settings
const (
	DefaultPhoneMaskLength = 4
	DefaultTokenMaskLength = 4
)

// Token record encryption parameters
const (
	EncryptionSalt       = "voipbits-registry-salt-v1"
	EncryptionIterations = 100000
	EncryptionKeySize    = 32
	EncryptionNonceSize  = 12
)
