package main

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"strings"
	"testing"
	"time"

	u "github.com/gofrs/uuid/v5"
	"github.com/golang-jwt/jwt/v5"

	"github.com/mkarelin/docforge/internal/session"
)

func Test_printJSON_WritesPretty(t *testing.T) {
	old := os.Stdout
	r, w, _ := os.Pipe()
	os.Stdout = w
	defer func() { os.Stdout = old }()

	printJSON(map[string]any{"a": 1})
	_ = w.Close()
	out, _ := io.ReadAll(r)

	var m map[string]any
	if json.Unmarshal(out, &m) != nil || m["a"] != float64(1) {
		t.Fatalf("printJSON produced invalid json: %s", string(out))
	}
	if !bytes.Contains(out, []byte("\n")) {
		t.Fatalf("printJSON should indent")
	}
}

func Test_mustUUID_ParsesValidID(t *testing.T) {
	want := u.Must(u.NewV4())
	got := mustUUID(want.String())
	if got != want {
		t.Fatalf("mustUUID=%s, want %s", got, want)
	}
}

func Test_whoamiLine(t *testing.T) {
	store := session.NewMemStore()

	if _, err := whoamiLine(store); err == nil {
		t.Fatal("empty store should report not logged in")
	}

	// opaque token without claims
	if err := store.SetToken("not-a-jwt", time.Now().Add(time.Hour)); err != nil {
		t.Fatalf("SetToken: %v", err)
	}
	line, err := whoamiLine(store)
	if err != nil || line != "logged in" {
		t.Fatalf("opaque token: line=%q err=%v", line, err)
	}

	// JWT with subject and expiry
	exp := time.Now().Add(time.Hour)
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "alice",
		ExpiresAt: jwt.NewNumericDate(exp),
	})
	signed, err := tok.SignedString([]byte("key"))
	if err != nil {
		t.Fatalf("SignedString: %v", err)
	}
	if err := store.SetToken(signed, exp); err != nil {
		t.Fatalf("SetToken: %v", err)
	}
	line, err = whoamiLine(store)
	if err != nil {
		t.Fatalf("whoamiLine: %v", err)
	}
	if !strings.Contains(line, "alice") || !strings.Contains(line, "token expires") {
		t.Fatalf("line missing subject or expiry: %q", line)
	}
}

func Test_newLogger_LevelFallback(t *testing.T) {
	if newLogger("debug") == nil {
		t.Fatal("debug logger is nil")
	}
	if newLogger("not-a-level") == nil {
		t.Fatal("bad level should still return a logger")
	}
}
