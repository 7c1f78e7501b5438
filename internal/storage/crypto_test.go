package storage

import (
	"strings"
	"testing"
)

func TestCipherBoxRoundTrip(t *testing.T) {
	key := []byte("0123456789abcdef0123456789abcdef")
	box, err := newCipherBox(key)
	if err != nil {
		t.Fatalf("Failed to create box: %v", err)
	}

	plaintext := []byte(`{"name":"Dana","pronouns":"she/her"}`)
	sealed, err := box.seal(plaintext)
	if err != nil {
		t.Fatalf("Failed to seal: %v", err)
	}

	if !strings.HasPrefix(sealed, encryptedPrefix) {
		t.Errorf("Expected sealed data to carry the %q prefix, got %q", encryptedPrefix, sealed)
	}
	if strings.Contains(sealed, "Dana") {
		t.Error("Plaintext leaked into sealed output")
	}

	opened, err := box.open(sealed)
	if err != nil {
		t.Fatalf("Failed to open: %v", err)
	}
	if string(opened) != string(plaintext) {
		t.Errorf("Round trip mismatch: got %q", opened)
	}
}

func TestCipherBoxUniqueNonces(t *testing.T) {
	box, err := newCipherBox([]byte("0123456789abcdef0123456789abcdef"))
	if err != nil {
		t.Fatalf("Failed to create box: %v", err)
	}

	a, _ := box.seal([]byte("same input"))
	b, _ := box.seal([]byte("same input"))
	if a == b {
		t.Error("Expected distinct ciphertexts for repeated seals")
	}
}

func TestCipherBoxWrongKey(t *testing.T) {
	box, _ := newCipherBox([]byte("0123456789abcdef0123456789abcdef"))
	other, _ := newCipherBox([]byte("fedcba9876543210fedcba9876543210"))

	sealed, err := box.seal([]byte("secret"))
	if err != nil {
		t.Fatalf("Failed to seal: %v", err)
	}

	if _, err := other.open(sealed); err == nil {
		t.Error("Expected decryption with the wrong key to fail")
	}
}

func TestCipherBoxTamperedData(t *testing.T) {
	box, _ := newCipherBox([]byte("0123456789abcdef0123456789abcdef"))

	sealed, err := box.seal([]byte("secret"))
	if err != nil {
		t.Fatalf("Failed to seal: %v", err)
	}

	tampered := sealed[:len(sealed)-4] + "AAA="
	if _, err := box.open(tampered); err == nil {
		t.Error("Expected tampered data to fail authentication")
	}
}

func TestCipherBoxBadKeyLength(t *testing.T) {
	if _, err := newCipherBox([]byte("short")); err == nil {
		t.Error("Expected error for invalid key length")
	}
}

func TestCipherBoxMalformedInput(t *testing.T) {
	box, _ := newCipherBox([]byte("0123456789abcdef0123456789abcdef"))

	for _, input := range []string{"", encryptedPrefix, encryptedPrefix + "!!!not base64!!!", encryptedPrefix + "QQ=="} {
		if _, err := box.open(input); err == nil {
			t.Errorf("Expected error opening %q", input)
		}
	}
}
