package common

// AccessTokenHeaderName is the gRPC metadata key used to carry the
// access token on outbound requests.
const AccessTokenHeaderName = "authorization"

// BearerPrefix precedes the access token in the AccessTokenHeaderName value.
const BearerPrefix = "Bearer "
