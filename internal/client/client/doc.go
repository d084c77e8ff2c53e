// Package client talks to the whistles gRPC API on behalf of the admin CLI.
//
// GRPCClient owns the connection, attaches the bearer token to every call
// and maps gRPC status codes to errors callers can match with errors.Is:
// ErrUnavailable, ErrUnauthorized, common.ErrNotFound, common.ErrDecryption
// and common.ErrValidation.
package client
