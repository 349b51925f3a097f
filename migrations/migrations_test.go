package migrations

import (
	"strings"
	"testing"
)

func TestUp_Ordered(t *testing.T) {
	names, err := Up()
	if err != nil {
		t.Fatal(err)
	}
	if len(names) == 0 {
		t.Fatal("expected migrations")
	}
	for i, n := range names {
		if n == DownFile {
			t.Error("down.sql must not be applied going up")
		}
		if i > 0 && names[i-1] >= n {
			t.Errorf("out of order: %s before %s", names[i-1], n)
		}
	}
}

func TestRead(t *testing.T) {
	sql, err := Read("002_reference_spaces.sql")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(sql, "reference_spaces") {
		t.Error("expected reference_spaces table")
	}
	if _, err := Read(DownFile); err != nil {
		t.Errorf("down.sql: %v", err)
	}
}
