// internal/handlers/ws_codes.go
package handlers

// Custom WebSocket close codes used by the lobby realtime handler. These give
// clients a more specific reason for closure than the standard codes.
const (
	BadSubprotocolError   = 3000 // Client connected with an unsupported subprotocol.
	InvalidSessionError   = 3001 // Session could not be established for the connection.
	InvalidLobbyCodeError = 3003 // Target lobby code does not exist or has expired.
)
