package command

import "testing"

func TestDashboardLogLevel(t *testing.T) {
	tests := []struct {
		level string
		debug bool
		want  string
	}{
		{"info", false, "info"},
		{"warn", true, "debug"},
		{"", true, "debug"},
		{"error", false, "error"},
	}
	for _, tt := range tests {
		if got := dashboardLogLevel(tt.level, tt.debug); got != tt.want {
			t.Errorf("dashboardLogLevel(%q, %v) = %q, want %q", tt.level, tt.debug, got, tt.want)
		}
	}
}
