package espalier

// Version is the library version reported by the command line tool and the
// MCP server handshake.
var Version = "0.3.0"
