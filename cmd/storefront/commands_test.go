package main

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/angelmondragon/aura-storefront/internal/storefront"
	"github.com/angelmondragon/aura-storefront/internal/storefront/notify"
	"github.com/angelmondragon/aura-storefront/pkg/clientstore"
	"github.com/angelmondragon/aura-storefront/pkg/config"
	pkgerrors "github.com/angelmondragon/aura-storefront/pkg/errors"
)

func newCLI(t *testing.T, handler http.HandlerFunc) (*commandLine, *bytes.Buffer) {
	t.Helper()
	return newNotifyingCLI(t, handler, nil)
}

func newNotifyingCLI(t *testing.T, handler http.HandlerFunc, notifier notify.Notifier) (*commandLine, *bytes.Buffer) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := &config.ClientConfig{APIURL: srv.URL, RequestTimeout: 5 * time.Second, SubmitTimeout: 5 * time.Second}
	app, err := storefront.New(context.Background(), cfg, storefront.Options{
		Store:      clientstore.NewMemory(),
		HTTPClient: srv.Client(),
		Notifier:   notifier,
	})
	if err != nil {
		t.Fatalf("new app: %v", err)
	}
	t.Cleanup(func() { _ = app.Close() })

	out := &bytes.Buffer{}
	return &commandLine{app: app, out: out}, out
}

func catalogue(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	switch r.URL.Path {
	case "/api/products/p1":
		_, _ = w.Write([]byte(`{"data":{"_id":"p1","name":"Void Hoodie","price":"120","countInStock":5}}`))
	case "/api/products":
		_, _ = w.Write([]byte(`{"data":[{"_id":"p1","name":"Void Hoodie","price":"120","countInStock":5}]}`))
	default:
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":{"code":"NOT_FOUND","message":"product not found"}}`))
	}
}

func TestUnknownCommand(t *testing.T) {
	cli, out := newCLI(t, catalogue)
	err := cli.dispatch(context.Background(), []string{"teleport"})
	if !errors.Is(err, errUsage) {
		t.Fatalf("expected usage error, got %v", err)
	}
	if !strings.Contains(out.String(), "usage: storefront") {
		t.Fatalf("expected usage text, got %q", out.String())
	}
}

func TestProductsListing(t *testing.T) {
	cli, out := newCLI(t, catalogue)
	if err := cli.dispatch(context.Background(), []string{"products"}); err != nil {
		t.Fatalf("products: %v", err)
	}
	if !strings.Contains(out.String(), "Void Hoodie") || !strings.Contains(out.String(), "120.00") {
		t.Fatalf("unexpected output %q", out.String())
	}
}

func TestCartAddShowsTotals(t *testing.T) {
	cli, out := newCLI(t, catalogue)
	ctx := context.Background()
	if err := cli.dispatch(ctx, []string{"cart", "add", "p1"}); err != nil {
		t.Fatalf("cart add: %v", err)
	}
	got := out.String()
	for _, want := range []string{"Void Hoodie", "subtotal", "shipping", "0.00", "120.00"} {
		if !strings.Contains(got, want) {
			t.Fatalf("expected %q in %q", want, got)
		}
	}

	out.Reset()
	if err := cli.dispatch(ctx, []string{"cart", "qty", "p1", "0"}); err != nil {
		t.Fatalf("cart qty: %v", err)
	}
	if !strings.Contains(out.String(), "your cart is empty") {
		t.Fatalf("unexpected output %q", out.String())
	}

	err := cli.dispatch(ctx, []string{"cart", "add", "missing"})
	if !pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestCommandsRequireSession(t *testing.T) {
	cli, _ := newCLI(t, catalogue)
	ctx := context.Background()
	for _, args := range [][]string{{"wishlist"}, {"orders"}, {"checkout", "-address", "x"}} {
		if err := cli.dispatch(ctx, args); !pkgerrors.IsCode(err, pkgerrors.CodeAuthRequired) {
			t.Fatalf("%v: expected auth required, got %v", args, err)
		}
	}
}

func TestWhoamiAnonymous(t *testing.T) {
	cli, out := newCLI(t, catalogue)
	if err := cli.dispatch(context.Background(), []string{"whoami"}); err != nil {
		t.Fatalf("whoami: %v", err)
	}
	if strings.TrimSpace(out.String()) != "not signed in" {
		t.Fatalf("unexpected output %q", out.String())
	}
}

func wishlistRejects(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	switch {
	case r.URL.Path == "/api/users/login":
		_, _ = w.Write([]byte(`{"data":{"_id":"u1","name":"Ada","email":"ada@aura.com","isAdmin":false,"token":"tok"}}`))
	case r.URL.Path == "/api/users/wishlist" && r.Method == http.MethodGet:
		_, _ = w.Write([]byte(`{"data":[]}`))
	default:
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":{"code":"NOT_FOUND","message":"product not found"}}`))
	}
}

func TestFailedToggleIsReportedOnce(t *testing.T) {
	shown := &bytes.Buffer{}
	notes := &terminalNotifier{out: shown}
	cli, _ := newNotifyingCLI(t, wishlistRejects, notes)
	ctx := context.Background()
	if _, err := cli.app.Session.Login(ctx, "ada@aura.com", "secret"); err != nil {
		t.Fatalf("login: %v", err)
	}

	err := cli.dispatch(ctx, []string{"wishlist", "toggle", "p404"})
	if err == nil {
		t.Fatal("expected toggle to fail")
	}
	stderr := &bytes.Buffer{}
	reportError(stderr, notes, err)

	if got := strings.Count(shown.String()+stderr.String(), "product not found"); got != 1 {
		t.Fatalf("expected the failure once, got %d in %q / %q", got, shown.String(), stderr.String())
	}
	if stderr.Len() != 0 {
		t.Fatalf("notified error should not be printed again, got %q", stderr.String())
	}

	reportError(stderr, notes, pkgerrors.New(pkgerrors.CodeAuthRequired, "please sign in"))
	if !strings.Contains(stderr.String(), "error: please sign in") {
		t.Fatalf("errors without a notification must still print, got %q", stderr.String())
	}
}
