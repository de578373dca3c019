package common

const (
	// AuthorizationHeaderName is the HTTP header and gRPC metadata key that
	// carries the bearer credential.
	AuthorizationHeaderName = "authorization"

	// BearerScheme is the only credential scheme accepted by the gate.
	BearerScheme = "Bearer"
)
