// Package cli implements the whistles admin command line: one command per
// invocation, output as indented JSON on stdout.
//
// Commands that read or reveal messages accept -salt and -shift to select a
// partition other than the server default, and -ask-secret to prompt for its
// encryption secret without echo.
package cli
