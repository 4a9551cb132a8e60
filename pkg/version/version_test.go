package version

import (
	"strings"
	"testing"
)

func TestVersion(t *testing.T) {
	tests := []struct {
		name    string
		version string
		wantSet bool
	}{
		{
			name:    "DefaultVersion",
			version: Version,
			wantSet: true,
		},
		{
			name:    "Unset",
			version: "",
			wantSet: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if (tt.version != "") != tt.wantSet {
				t.Errorf("Version = %q, wantSet %v", tt.version, tt.wantSet)
			}
		})
	}

	if !strings.HasPrefix(Version, "v") {
		t.Errorf("Version %q should start with 'v'", Version)
	}
}
