package util_test

import (
	"testing"

	"github.com/downfa11-org/tombmap/util"
)

func TestFormatCount(t *testing.T) {
	tests := []struct {
		in   uint64
		want string
	}{
		{0, "0"},
		{7, "7"},
		{999, "999"},
		{1000, "1,000"},
		{12345, "12,345"},
		{940370485, "940,370,485"},
		{1000000000, "1,000,000,000"},
	}

	for _, tt := range tests {
		if got := util.FormatCount(tt.in); got != tt.want {
			t.Errorf("FormatCount(%d) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
