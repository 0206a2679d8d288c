package utils

import (
	"strings"
	"testing"
)

func TestBytesMD5(t *testing.T) {
	if got := BytesMD5([]byte("abc")); got != "900150983cd24fb0d6963f7d28e17f72" {
		t.Errorf("unexpected md5 %s", got)
	}
}

func TestSessionID(t *testing.T) {
	id := SessionID([]byte("abc"))
	if !strings.HasSuffix(id, "-90015098") {
		t.Errorf("expected md5 suffix, got %s", id)
	}
	if strings.Contains(SessionID(nil), "-") {
		t.Error("no seed should produce a bare timestamp id")
	}
}

func TestInitLogger(t *testing.T) {
	if err := InitLogger("release"); err != nil {
		t.Fatal(err)
	}
	if Logger == nil {
		t.Fatal("logger not initialized")
	}
	Sync()
}
