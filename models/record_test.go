package models

import (
	"encoding/json"
	"testing"
)

func TestRecordPreservesInsertionOrder(t *testing.T) {
	r := NewRecord()
	r.Set("Book name", "A Light in the Attic")
	r.Set("Book price", "£51.77")
	r.Set("UPC", "a897fe39b1053632")

	want := []string{"Book name", "Book price", "UPC"}
	got := r.Keys()
	if len(got) != len(want) {
		t.Fatalf("keys = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("keys[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestRecordSetOverwriteKeepsPosition(t *testing.T) {
	r := NewRecord()
	r.Set("a", "1")
	r.Set("b", "2")
	r.Set("a", "3")

	if r.Len() != 2 {
		t.Fatalf("len = %d, want 2", r.Len())
	}
	if got := r.Keys()[0]; got != "a" {
		t.Fatalf("first key = %q, want %q", got, "a")
	}
	if v, _ := r.Get("a"); v != "3" {
		t.Fatalf("a = %q, want %q", v, "3")
	}
}

func TestRecordMergeLastWriteWins(t *testing.T) {
	fixed := NewRecord()
	fixed.Set("Book name", "Sharp Objects")
	fixed.Set("Rate", "4")

	extra := NewRecord()
	extra.Set("UPC", "e00eb4fd7b871a48")
	extra.Set("Rate", "overwritten")

	fixed.Merge(extra)

	if fixed.Len() != 3 {
		t.Fatalf("len = %d, want 3", fixed.Len())
	}
	if v, _ := fixed.Get("Rate"); v != "overwritten" {
		t.Fatalf("Rate = %q, want %q", v, "overwritten")
	}
}

func TestRecordMergeNil(t *testing.T) {
	r := NewRecord()
	r.Set("a", "1")
	r.Merge(nil)
	if r.Len() != 1 {
		t.Fatalf("len = %d, want 1", r.Len())
	}
}

func TestRecordEmpty(t *testing.T) {
	if !NewRecord().Empty() {
		t.Fatalf("new record should be empty")
	}
	r := NewRecord()
	r.Set("a", "")
	if r.Empty() {
		t.Fatalf("record with a key should not be empty")
	}
}

func TestRecordMarshalJSONOrdered(t *testing.T) {
	r := NewRecord()
	r.Set("z", "last?")
	r.Set("a", "first?")
	r.Set("m", "£10")

	data, err := json.Marshal(r)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	want := `{"z":"last?","a":"first?","m":"£10"}`
	if string(data) != want {
		t.Fatalf("json = %s, want %s", data, want)
	}

	var back map[string]string
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("round trip: %v", err)
	}
	if back["m"] != "£10" {
		t.Fatalf("m = %q, want %q", back["m"], "£10")
	}
}
