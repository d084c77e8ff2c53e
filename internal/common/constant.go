// Package common contains shared constants and sentinel errors used across
// whistles components.
package common

// AuthorizationHeaderName is the gRPC metadata key carrying the bearer token.
const AuthorizationHeaderName = "authorization"

// BearerPrefix precedes the JWT in the authorization header value.
const BearerPrefix = "Bearer "

// APIKeyHeaderName is sent to upstream hub APIs that authenticate by key.
const APIKeyHeaderName = "x-api-key"
