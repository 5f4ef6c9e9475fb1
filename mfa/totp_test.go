package mfa

import (
	"strings"
	"testing"
	"time"

	"github.com/pquerna/otp/totp"
)

func TestGenerateSecret(t *testing.T) {
	t.Parallel()

	prov, err := GenerateSecret("AuditForge", "dev@example.com")
	if err != nil {
		t.Fatalf("GenerateSecret error: %v", err)
	}
	if prov.Secret == "" {
		t.Fatal("empty secret")
	}
	if !strings.HasPrefix(prov.URI, "otpauth://totp/") {
		t.Fatalf("unexpected provisioning URI: %q", prov.URI)
	}
	if !strings.Contains(prov.URI, "AuditForge") {
		t.Fatalf("issuer missing from URI: %q", prov.URI)
	}

	other, err := GenerateSecret("AuditForge", "dev@example.com")
	if err != nil {
		t.Fatalf("GenerateSecret error: %v", err)
	}
	if other.Secret == prov.Secret {
		t.Fatal("two generations produced the same secret")
	}
}

func TestGenerateSecret_Rejections(t *testing.T) {
	t.Parallel()

	cases := [][2]string{
		{"", "dev@example.com"},
		{"AuditForge", ""},
		{"Audit:Forge", "dev@example.com"},
		{"AuditForge", "dev:example"},
	}
	for _, tc := range cases {
		if _, err := GenerateSecret(tc[0], tc[1]); err == nil {
			t.Fatalf("GenerateSecret(%q, %q) accepted invalid input", tc[0], tc[1])
		}
	}
}

func TestValidateCode(t *testing.T) {
	t.Parallel()

	prov, err := GenerateSecret("AuditForge", "dev@example.com")
	if err != nil {
		t.Fatalf("GenerateSecret error: %v", err)
	}

	code, err := totp.GenerateCode(prov.Secret, time.Now().UTC())
	if err != nil {
		t.Fatalf("GenerateCode error: %v", err)
	}

	if !ValidateCode(prov.Secret, code) {
		t.Fatal("current code rejected")
	}
	if ValidateCode(prov.Secret, "000000") && code != "000000" {
		t.Fatal("wrong code accepted")
	}
	if ValidateCode(prov.Secret, "") {
		t.Fatal("empty code accepted")
	}
	if ValidateCode("", code) {
		t.Fatal("empty secret accepted")
	}
}

func TestValidateCode_SkewWindow(t *testing.T) {
	t.Parallel()

	prov, err := GenerateSecret("AuditForge", "dev@example.com")
	if err != nil {
		t.Fatalf("GenerateSecret error: %v", err)
	}

	// code from the previous period is still inside the +-1 step window
	previous, err := totp.GenerateCode(prov.Secret, time.Now().UTC().Add(-totpPeriod*time.Second))
	if err != nil {
		t.Fatalf("GenerateCode error: %v", err)
	}
	if !ValidateCode(prov.Secret, previous) {
		t.Fatal("previous-step code rejected inside skew window")
	}
}
