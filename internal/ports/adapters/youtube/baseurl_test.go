package youtube

import (
	"reflect"
	"testing"
)

func TestValidateBaseURL(t *testing.T) {
	tests := []struct {
		name         string
		baseURL      string
		allowedHosts []string
		wantErr      bool
	}{
		{name: "empty uses default", baseURL: ""},
		{name: "default host", baseURL: "https://www.googleapis.com/youtube/v3/"},
		{name: "alternate google host", baseURL: "https://youtube.googleapis.com/youtube/v3"},
		{name: "reject relative", baseURL: "www.googleapis.com/youtube/v3", wantErr: true},
		{name: "reject http", baseURL: "http://www.googleapis.com/youtube/v3", wantErr: true},
		{name: "reject userinfo", baseURL: "https://u:p@www.googleapis.com/youtube/v3", wantErr: true},
		{name: "reject unknown host", baseURL: "https://evil.example/youtube/v3", wantErr: true},
		{name: "reject fragment", baseURL: "https://www.googleapis.com/youtube/v3#x", wantErr: true},
		{
			name:         "allow configured host",
			baseURL:      "https://yt-proxy.internal:8443/v3",
			allowedHosts: []string{"https://yt-proxy.internal:8443/"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateBaseURL(tt.baseURL, tt.allowedHosts)
			if tt.wantErr && err == nil {
				t.Fatalf("expected error, got nil")
			}
			if !tt.wantErr && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestAllowedHostSet_DefaultWhenEmpty(t *testing.T) {
	out := allowedHostSet([]string{" ", "https://", "http://"})
	if len(out) != len(defaultAllowedHosts) {
		t.Fatalf("expected default allowed hosts, got %v", out)
	}
}

func TestParseAllowedHosts(t *testing.T) {
	got := ParseAllowedHosts(" a.example , ,b.example")
	if !reflect.DeepEqual(got, []string{"a.example", "b.example"}) {
		t.Fatalf("unexpected hosts %v", got)
	}
}
