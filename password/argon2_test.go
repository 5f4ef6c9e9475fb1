package password

import (
	"strings"
	"testing"
)

func testHasher(t *testing.T) *Argon2 {
	t.Helper()

	cfg := DefaultConfig()
	// keep the test suite fast; parameters stay above the package floors
	cfg.Memory = 8 * 1024
	cfg.Time = 1
	cfg.Parallelism = 1

	hasher, err := NewArgon2(cfg)
	if err != nil {
		t.Fatalf("NewArgon2 error: %v", err)
	}
	return hasher
}

func TestArgon2_HashAndVerify(t *testing.T) {
	t.Parallel()

	hasher := testHasher(t)

	encoded, err := hasher.Hash("StrongP@ss1")
	if err != nil {
		t.Fatalf("Hash error: %v", err)
	}
	if !strings.HasPrefix(encoded, "$argon2id$") {
		t.Fatalf("unexpected hash format: %q", encoded)
	}

	ok, err := hasher.Verify("StrongP@ss1", encoded)
	if err != nil {
		t.Fatalf("Verify error: %v", err)
	}
	if !ok {
		t.Fatal("correct credential did not verify")
	}

	ok, err = hasher.Verify("WrongP@ss1", encoded)
	if err != nil {
		t.Fatalf("Verify error: %v", err)
	}
	if ok {
		t.Fatal("wrong credential verified")
	}
}

func TestArgon2_HashIsSalted(t *testing.T) {
	t.Parallel()

	hasher := testHasher(t)

	first, err := hasher.Hash("StrongP@ss1")
	if err != nil {
		t.Fatalf("Hash error: %v", err)
	}
	second, err := hasher.Hash("StrongP@ss1")
	if err != nil {
		t.Fatalf("Hash error: %v", err)
	}
	if first == second {
		t.Fatal("two hashes of the same credential are identical")
	}
}

func TestArgon2_VerifyRejectsMalformedHash(t *testing.T) {
	t.Parallel()

	hasher := testHasher(t)

	for _, encoded := range []string{"", "plainhash", "$argon2i$v=19$m=8192,t=1,p=1$c2FsdA$aGFzaA"} {
		if _, err := hasher.Verify("anything", encoded); err == nil {
			t.Fatalf("Verify(%q) accepted a malformed hash", encoded)
		}
	}
}

func TestArgon2_NeedsUpgrade(t *testing.T) {
	t.Parallel()

	hasher := testHasher(t)

	encoded, err := hasher.Hash("StrongP@ss1")
	if err != nil {
		t.Fatalf("Hash error: %v", err)
	}

	upgrade, err := hasher.NeedsUpgrade(encoded)
	if err != nil {
		t.Fatalf("NeedsUpgrade error: %v", err)
	}
	if upgrade {
		t.Fatal("hash at current parameters reported as needing upgrade")
	}

	stronger, err := NewArgon2(Config{
		Memory:      16 * 1024,
		Time:        2,
		Parallelism: 1,
		SaltLength:  16,
		KeyLength:   32,
	})
	if err != nil {
		t.Fatalf("NewArgon2 error: %v", err)
	}

	upgrade, err = stronger.NeedsUpgrade(encoded)
	if err != nil {
		t.Fatalf("NeedsUpgrade error: %v", err)
	}
	if !upgrade {
		t.Fatal("weaker hash not reported as needing upgrade")
	}
}
