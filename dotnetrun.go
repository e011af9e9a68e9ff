// Package dotnetrun holds the build version of the dotnetrun tool.
package dotnetrun

// Version is the dotnetrun release, reported by `dotnetrun version` and the
// MCP server implementation info.
const Version = "v0.3.0"
