package db

import (
	"reflect"
	"testing"
)

func TestStringListAddRemove(t *testing.T) {
	t.Parallel()

	list := StringList{"a"}
	list, added := list.Add("a", "b", "c")
	if !reflect.DeepEqual(added, []string{"b", "c"}) {
		t.Fatalf("added = %v, want [b c]", added)
	}

	list, removed := list.Remove("a", "x")
	if !reflect.DeepEqual(removed, []string{"a"}) {
		t.Fatalf("removed = %v, want [a]", removed)
	}
	if list.Contains("a") || !list.Contains("b") {
		t.Fatalf("unexpected list: %v", list)
	}
}

func TestStringListScanValue(t *testing.T) {
	t.Parallel()

	original := StringList{"x", "y"}
	raw, err := original.Value()
	if err != nil {
		t.Fatalf("value: %v", err)
	}

	var decoded StringList
	if err := decoded.Scan(raw); err != nil {
		t.Fatalf("scan: %v", err)
	}
	if !reflect.DeepEqual(decoded, original) {
		t.Fatalf("round trip lost data: %v", decoded)
	}

	var fromNil StringList
	if err := fromNil.Scan(nil); err != nil {
		t.Fatalf("scan nil: %v", err)
	}
	if err := fromNil.Scan(42); err == nil {
		t.Fatal("expected error for unsupported type")
	}
}
