package core

import (
	"context"
	"errors"
	"testing"
)

func noopOp(_ context.Context, _ map[string]interface{}) (map[string]interface{}, error) {
	return map[string]interface{}{"status": "success"}, nil
}

func testEntry(name string) Entry {
	return Entry{
		Descriptor: Descriptor{
			Name:        name,
			Version:     "1.0.0",
			Description: "test operation",
			Parameters: map[string]ParamSpec{
				"subject": {Type: "string", Source: BindSubject},
			},
		},
		Invoke: noopOp,
	}
}

func mustSign(t *testing.T, d *Descriptor, secret string) {
	t.Helper()
	if err := SignDescriptor(d, secret); err != nil {
		t.Fatalf("signing descriptor: %v", err)
	}
}

func TestRegistryResolveAndList(t *testing.T) {
	r, err := NewRegistry([]Entry{testEntry("alpha"), testEntry("beta")}, "", nil)
	if err != nil {
		t.Fatalf("building registry: %v", err)
	}
	names := r.List()
	if len(names) != 2 || names[0] != "alpha" || names[1] != "beta" {
		t.Fatalf("expected registration order [alpha beta], got %v", names)
	}
	if _, err := r.Resolve("alpha"); err != nil {
		t.Fatalf("resolving alpha: %v", err)
	}
	desc, err := r.Describe("beta")
	if err != nil {
		t.Fatalf("describing beta: %v", err)
	}
	if desc.Name != "beta" {
		t.Fatalf("expected descriptor beta, got %q", desc.Name)
	}
}

func TestRegistryNotFound(t *testing.T) {
	r, err := NewRegistry([]Entry{testEntry("alpha")}, "", nil)
	if err != nil {
		t.Fatalf("building registry: %v", err)
	}
	if _, err := r.Resolve("missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := r.Describe("missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestRegistryRejectsDuplicates(t *testing.T) {
	if _, err := NewRegistry([]Entry{testEntry("alpha"), testEntry("alpha")}, "", nil); err == nil {
		t.Fatal("expected error for duplicate entry")
	}
}

func TestRegistryRequiredOperations(t *testing.T) {
	if _, err := NewRegistry([]Entry{testEntry("alpha")}, "", []string{"alpha", "beta"}); err == nil {
		t.Fatal("expected error for missing required operation")
	}
}

func TestRegistryValidatesSignatures(t *testing.T) {
	const secret = "test-secret"

	signed := testEntry("alpha")
	mustSign(t, &signed.Descriptor, secret)
	if _, err := NewRegistry([]Entry{signed}, secret, nil); err != nil {
		t.Fatalf("valid signature rejected: %v", err)
	}

	unsigned := testEntry("beta")
	if _, err := NewRegistry([]Entry{unsigned}, secret, nil); err == nil {
		t.Fatal("expected error for unsigned descriptor")
	}

	tampered := testEntry("gamma")
	mustSign(t, &tampered.Descriptor, secret)
	tampered.Descriptor.Description = "changed after signing"
	if _, err := NewRegistry([]Entry{tampered}, secret, nil); err == nil {
		t.Fatal("expected error for tampered descriptor")
	}

	wrongKey := testEntry("delta")
	mustSign(t, &wrongKey.Descriptor, "other-secret")
	if _, err := NewRegistry([]Entry{wrongKey}, secret, nil); err == nil {
		t.Fatal("expected error for signature under a different secret")
	}
}

func TestChecksumIsDeterministic(t *testing.T) {
	a := testEntry("alpha").Descriptor
	b := testEntry("alpha").Descriptor
	ca, err := ComputeChecksum(a)
	if err != nil {
		t.Fatalf("checksum: %v", err)
	}
	cb, err := ComputeChecksum(b)
	if err != nil {
		t.Fatalf("checksum: %v", err)
	}
	if ca != cb {
		t.Fatalf("identical descriptors produced different checksums: %s vs %s", ca, cb)
	}
}
