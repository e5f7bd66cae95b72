package common

// AuthHeaderName is the HTTP header used to carry the access token on
// outbound requests.
const AuthHeaderName = "Authorization"

// AuthScheme prefixes the token value in AuthHeaderName.
const AuthScheme = "Bearer"
