// Package gridloom holds module-level metadata.
package gridloom

// Version is the current gridloom release.
const Version = "0.1.0"
