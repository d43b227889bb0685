package vaultsite

import "testing"

func TestResolveDownloadURL(t *testing.T) {
	const origin = "https://host"

	tests := []struct {
		name    string
		action  string
		mediaID string
		want    string
	}{
		{
			name:    "no action synthesizes default endpoint",
			action:  "",
			mediaID: "42",
			want:    "https://host/download?mediaId=42",
		},
		{
			name:    "host relative",
			action:  "/download",
			mediaID: "42",
			want:    "https://host/download?mediaId=42",
		},
		{
			name:    "protocol relative gets origin scheme",
			action:  "//files.host/dl",
			mediaID: "42",
			want:    "https://files.host/dl?mediaId=42",
		},
		{
			name:    "already absolute",
			action:  "http://mirror.host/dl",
			mediaID: "42",
			want:    "http://mirror.host/dl?mediaId=42",
		},
		{
			name:    "existing query appends with ampersand",
			action:  "/dl?token=abc",
			mediaID: "42",
			want:    "https://host/dl?token=abc&mediaId=42",
		},
		{
			name:    "media id already present is not duplicated",
			action:  "/dl?mediaId=42",
			mediaID: "42",
			want:    "https://host/dl?mediaId=42",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ResolveDownloadURL(tt.action, tt.mediaID, origin)
			if got != tt.want {
				t.Errorf("ResolveDownloadURL(%q) = %q, want %q", tt.action, got, tt.want)
			}
		})
	}
}

func TestResolveDownloadURL_Idempotent(t *testing.T) {
	const origin = "https://host"
	first := ResolveDownloadURL("/download", "42", origin)
	second := ResolveDownloadURL(first, "42", origin)
	if first != second {
		t.Errorf("second resolve changed the URL: %q -> %q", first, second)
	}
}
