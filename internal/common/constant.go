package common

// AuthorizationHeaderName is the HTTP header used to carry the bearer
// credential on outbound requests.
const AuthorizationHeaderName = "Authorization"

// BearerPrefix is prepended to the raw credential in the Authorization header.
const BearerPrefix = "Bearer "
