// SPDX-License-Identifier: MPL-2.0

package pyproject

import "testing"

func TestSpecifierSetContains(t *testing.T) {
	t.Parallel()

	tests := []struct {
		spec    string
		version string
		want    bool
	}{
		{"", "2.7.100", true},
		{">=3.8", "3.8.100", true},
		{">=3.8", "3.7.100", false},
		{">=3.8", "2.7.100", false},
		{"<3", "2.7.100", true},
		{"<3", "3.0.100", false},
		{">=2.7,!=3.0.*,!=3.1.*", "3.0.100", false},
		{">=2.7,!=3.0.*,!=3.1.*", "3.2.100", true},
		{"==3.*", "3.11.100", true},
		{"==3.*", "2.7.100", false},
		{"~=3.8", "3.12.100", true},
		{"~=3.8", "4.0.100", false},
		{"~=3.8.1", "3.8.100", true},
		{"~=3.8.1", "3.9.100", false},
		{"==3.10", "3.10.0", true},
		{">3.10", "3.10.100", true},
		{"<=3.10", "3.10.100", false},
		{">=3.9rc1", "3.9.100", true},
		{"===3.9", "3.9", true},
	}

	for _, tt := range tests {
		t.Run(tt.spec+"@"+tt.version, func(t *testing.T) {
			t.Parallel()

			set, err := ParseSpecifiers(tt.spec)
			if err != nil {
				t.Fatalf("ParseSpecifiers(%q) unexpected error: %v", tt.spec, err)
			}
			if got := set.Contains(tt.version); got != tt.want {
				t.Errorf("%q.Contains(%q) = %v, want %v", tt.spec, tt.version, got, tt.want)
			}
		})
	}
}

func TestParseSpecifiersInvalid(t *testing.T) {
	t.Parallel()

	for _, spec := range []string{"3.8", ">=abc", "~=3", ">=3.*"} {
		if _, err := ParseSpecifiers(spec); err == nil {
			t.Errorf("ParseSpecifiers(%q) returned no error", spec)
		}
	}
}
