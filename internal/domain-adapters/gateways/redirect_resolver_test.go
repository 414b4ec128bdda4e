package gateways

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ochairo/relmirror/internal/domain/entities"
	"github.com/ochairo/relmirror/internal/domain/services"
)

func newTestResolver(t *testing.T) *RedirectResolver {
	t.Helper()
	parser, err := services.NewFilenameParser("Snipaste", entities.DefaultExtensions)
	if err != nil {
		t.Fatalf("NewFilenameParser() error = %v", err)
	}
	return NewRedirectResolver(parser, 5*time.Second)
}

func TestRedirectResolver_Resolve(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/win-x64", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodHead {
			t.Errorf("Method = %s, want HEAD", r.Method)
		}
		http.Redirect(w, r, "/archives/Snipaste-3.0.1-x64.zip", http.StatusFound)
	})
	mux.HandleFunc("/archives/", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	resolver := newTestResolver(t)
	got, err := resolver.Resolve(context.Background(), entities.PlatformTarget{
		Name:        "win-x64",
		RedirectURL: server.URL + "/win-x64",
	})
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}

	if got.Platform != "win-x64" {
		t.Errorf("Platform = %s", got.Platform)
	}
	if got.Version != "3.0.1" {
		t.Errorf("Version = %s, want 3.0.1", got.Version)
	}
	if got.Filename != "Snipaste-3.0.1-x64.zip" {
		t.Errorf("Filename = %s", got.Filename)
	}
	if got.ResolvedURL != server.URL+"/archives/Snipaste-3.0.1-x64.zip" {
		t.Errorf("ResolvedURL = %s", got.ResolvedURL)
	}
}

func TestRedirectResolver_IgnoresFinalStatus(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/mac", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/Snipaste-3.0.1.dmg", http.StatusMovedPermanently)
	})
	mux.HandleFunc("/Snipaste-3.0.1.dmg", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	got, err := newTestResolver(t).Resolve(context.Background(), entities.PlatformTarget{
		Name:        "mac",
		RedirectURL: server.URL + "/mac",
	})
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if got.Version != "3.0.1" || got.Tag != "" {
		t.Errorf("got %+v", got)
	}
}

func TestRedirectResolver_ParseError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	_, err := newTestResolver(t).Resolve(context.Background(), entities.PlatformTarget{
		Name:        "linux",
		RedirectURL: server.URL + "/download.html",
	})
	if !entities.IsKind(err, entities.KindParse) {
		t.Errorf("Resolve() error = %v, want parse error", err)
	}
}

func TestRedirectResolver_NetworkError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	target := server.URL + "/linux"
	server.Close()

	_, err := newTestResolver(t).Resolve(context.Background(), entities.PlatformTarget{
		Name:        "linux",
		RedirectURL: target,
	})
	if !entities.IsKind(err, entities.KindNetwork) {
		t.Errorf("Resolve() error = %v, want network error", err)
	}
}
