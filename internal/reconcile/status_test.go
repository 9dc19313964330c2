package reconcile

import (
	"testing"

	"github.com/textmint/textmint/internal/domain"
)

func TestMapRemoteStatus(t *testing.T) {
	cases := []struct {
		remote string
		want   string
	}{
		{"connected", domain.SessionConnected},
		{"connecting", domain.SessionConnecting},
		{"expired", domain.SessionExpired},
		{"logged_out", domain.SessionExpired},
		{"disconnected", domain.SessionDisconnected},
		{"banana", domain.SessionDisconnected},
		{"", domain.SessionDisconnected},
		{"CONNECTED", domain.SessionDisconnected}, // mapping is case-sensitive
	}
	for _, tc := range cases {
		if got := MapRemoteStatus(tc.remote); got != tc.want {
			t.Errorf("MapRemoteStatus(%q) = %q, want %q", tc.remote, got, tc.want)
		}
	}
}
