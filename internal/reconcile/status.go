package reconcile

import "github.com/textmint/textmint/internal/domain"

// MapRemoteStatus translates the gateway status vocabulary into the local
// session enum. Unknown or empty values collapse to disconnected.
func MapRemoteStatus(remote string) string {
	switch remote {
	case "connected":
		return domain.SessionConnected
	case "connecting":
		return domain.SessionConnecting
	case "expired", "logged_out":
		return domain.SessionExpired
	default:
		return domain.SessionDisconnected
	}
}
