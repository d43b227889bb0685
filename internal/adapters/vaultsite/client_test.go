package vaultsite

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newTestClient(t *testing.T, origin string) *Client {
	t.Helper()
	c, err := NewClient(Config{Origin: origin, SiteName: "Vault"})
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}
	return c
}

func TestFetchPage_SendsBrowserHeaders(t *testing.T) {
	var gotUA, gotAccept string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		gotAccept = r.Header.Get("Accept")
		_, _ = w.Write([]byte("<title>Vault: X</title>"))
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	body, status, err := c.FetchPage(context.Background(), srv.URL+"/page/1")
	if err != nil {
		t.Fatalf("FetchPage() error = %v", err)
	}
	if status != http.StatusOK {
		t.Errorf("status = %d, want 200", status)
	}
	if body != "<title>Vault: X</title>" {
		t.Errorf("body = %q", body)
	}
	if gotUA == "" || gotUA == "Go-http-client/1.1" {
		t.Errorf("User-Agent = %q, want a browser UA", gotUA)
	}
	if gotAccept == "" {
		t.Errorf("Accept header not set")
	}
}

func TestClient_CookiesPersistAcrossRequests(t *testing.T) {
	var probeCookie string
	mux := http.NewServeMux()
	mux.HandleFunc("/page", func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: "session", Value: "tok123", Path: "/"})
		_, _ = w.Write([]byte("ok"))
	})
	mux.HandleFunc("/dl", func(w http.ResponseWriter, r *http.Request) {
		if ck, err := r.Cookie("session"); err == nil {
			probeCookie = ck.Value
		}
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	if _, _, err := c.FetchPage(context.Background(), srv.URL+"/page"); err != nil {
		t.Fatalf("FetchPage() error = %v", err)
	}
	if _, err := c.ProbeSize(context.Background(), srv.URL+"/dl", srv.URL+"/page"); err != nil {
		t.Fatalf("ProbeSize() error = %v", err)
	}
	if probeCookie != "tok123" {
		t.Errorf("probe cookie = %q, want %q", probeCookie, "tok123")
	}
}

func TestProbeSize(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodHead {
			t.Errorf("method = %s, want HEAD", r.Method)
		}
		if got := r.Header.Get("Referer"); got != "https://ref" {
			t.Errorf("Referer = %q, want %q", got, "https://ref")
		}
		w.Header().Set("Content-Length", "12345")
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	size, err := c.ProbeSize(context.Background(), srv.URL, "https://ref")
	if err != nil {
		t.Fatalf("ProbeSize() error = %v", err)
	}
	if size != 12345 {
		t.Errorf("size = %d, want 12345", size)
	}
}

func TestSuggestedFilename(t *testing.T) {
	tests := []struct {
		name        string
		disposition string
		want        string
	}{
		{"attachment", `attachment; filename="Star Courier 2.zip"`, "Star Courier 2.zip"},
		{"none", "", ""},
		{"malformed", `;;;`, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if tt.disposition != "" {
					w.Header().Set("Content-Disposition", tt.disposition)
				}
			}))
			defer srv.Close()

			c := newTestClient(t, srv.URL)
			got, err := c.SuggestedFilename(context.Background(), srv.URL, "")
			if err != nil {
				t.Fatalf("SuggestedFilename() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("SuggestedFilename() = %q, want %q", got, tt.want)
			}
		})
	}
}
