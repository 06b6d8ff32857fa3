package id

import (
	"reflect"
	"testing"
)

func TestNormalizeAccountID(t *testing.T) {
	got, err := NormalizeAccountID("  alice.testnet ")
	if err != nil {
		t.Fatalf("NormalizeAccountID failed: %v", err)
	}
	if got != "alice.testnet" {
		t.Fatalf("unexpected account id: %q", got)
	}
	if _, err := NormalizeAccountID("   "); err == nil {
		t.Fatal("expected empty account id to fail")
	}
}

func TestParseMethodNamesKeepsOrderAndDedupes(t *testing.T) {
	got := ParseMethodNames("ft_transfer, storage_deposit,ft_transfer,,")
	want := []string{"ft_transfer", "storage_deposit"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("unexpected methods: %#v", got)
	}
	if got := ParseMethodNames(""); len(got) != 0 {
		t.Fatalf("expected empty list for any-method, got %#v", got)
	}
}
