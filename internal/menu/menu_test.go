package menu

import (
	"fmt"
	"strings"
	"testing"
)

func TestDisplayNumbersCountHiddenEntries(t *testing.T) {
	m := New("Main Menu")
	m.AddOption("Browse books", func() {}, false)
	m.AddOption("Add book", func() {}, true)
	m.AddOption("Logout", func() {}, false)

	adminView := m.Display(true, -1)
	for _, line := range []string{"[1] Browse books", "[2] [Admin] Add book", "[3] Logout"} {
		if !strings.Contains(adminView, line) {
			t.Errorf("admin view missing %q:\n%s", line, adminView)
		}
	}

	userView := m.Display(false, -1)
	if strings.Contains(userView, "Add book") {
		t.Errorf("non-admin view must hide admin entries:\n%s", userView)
	}
	// Hidden entries still occupy their position in the numbering.
	if !strings.Contains(userView, "[3] Logout") {
		t.Errorf("numbering must count hidden entries:\n%s", userView)
	}
	if strings.Contains(userView, "[2]") {
		t.Errorf("hidden entry's number must not be reassigned:\n%s", userView)
	}
}

func TestHandleInputSelectsByNumber(t *testing.T) {
	var picked string
	m := New("Test")
	m.AddOption("First", func() { picked = "first" }, false)
	m.AddOption("Second", func() { picked = "second" }, false)

	tests := []struct {
		input   string
		want    bool
		picked  string
	}{
		{"1", true, "first"},
		{"2", true, "second"},
		{"2\n", true, "second"},
		{"  1  ", true, "first"},
		{"0", false, ""},
		{"3", false, ""},
		{"-1", false, ""},
		{"abc", false, ""},
		{"", false, ""},
	}

	for _, tt := range tests {
		picked = ""
		if got := m.HandleInput(tt.input, false); got != tt.want {
			t.Errorf("HandleInput(%q) = %v, want %v", tt.input, got, tt.want)
		}
		if picked != tt.picked {
			t.Errorf("HandleInput(%q) picked %q, want %q", tt.input, picked, tt.picked)
		}
	}
}

func TestAdminOnlyFallsBackToLastOption(t *testing.T) {
	var picked string
	m := New("Test")
	m.AddOption("Browse", func() { picked = "browse" }, false)
	m.AddOption("Delete everything", func() { picked = "delete" }, true)
	m.AddOption("Logout", func() { picked = "logout" }, false)

	// A non-admin selecting the admin entry runs the last option instead.
	if !m.HandleInput("2", false) {
		t.Fatal("expected the input to be handled")
	}
	if picked != "logout" {
		t.Errorf("non-admin selection of an admin entry should run the last option, ran %q", picked)
	}

	picked = ""
	if !m.HandleInput("2", true) {
		t.Fatal("expected the input to be handled")
	}
	if picked != "delete" {
		t.Errorf("admin selection should run the admin entry, ran %q", picked)
	}
}

func TestPagingDisplay(t *testing.T) {
	m := NewPaged("Books", 3)
	for i := 1; i <= 7; i++ {
		m.AddOption(fmt.Sprintf("Book %d", i), func() {}, false)
	}

	first := m.Display(false, 0)
	if !strings.Contains(first, "[1] Book 1") || !strings.Contains(first, "[3] Book 3") {
		t.Errorf("first page should show options 1-3:\n%s", first)
	}
	if strings.Contains(first, "Book 4") {
		t.Errorf("first page must not show the second page:\n%s", first)
	}
	if !strings.Contains(first, "[N] Next") {
		t.Errorf("first page should offer Next:\n%s", first)
	}
	if strings.Contains(first, "[P] Previous") {
		t.Errorf("first page must not offer Previous:\n%s", first)
	}
	if !strings.Contains(first, "[BACK]") {
		t.Errorf("paged menu should render the back entry:\n%s", first)
	}

	last := m.Display(false, 2)
	if !strings.Contains(last, "[7] Book 7") {
		t.Errorf("last page should show option 7 with its absolute number:\n%s", last)
	}
	if strings.Contains(last, "[N] Next") {
		t.Errorf("last page must not offer Next:\n%s", last)
	}
	if !strings.Contains(last, "[P] Previous") {
		t.Errorf("last page should offer Previous:\n%s", last)
	}
}

func TestPagingNavigation(t *testing.T) {
	var picked string
	m := NewPaged("Books", 2)
	for i := 1; i <= 5; i++ {
		label := fmt.Sprintf("Book %d", i)
		m.AddOption(label, func() { picked = label }, false)
	}
	m.AddOption("Back", func() { picked = "back" }, false)

	if !m.HandleInput("N", false) {
		t.Fatal("Next from the first page should be handled")
	}
	if !m.HandleInput("P", false) {
		t.Fatal("Previous from the second page should be handled")
	}
	if m.HandleInput("P", false) {
		t.Error("Previous from the first page should be rejected")
	}
	if !m.HandleInput("S 3", false) {
		t.Fatal("selecting page 3 should be handled")
	}
	if m.HandleInput("S 9", false) {
		t.Error("selecting a page past the end should be rejected")
	}
	if m.HandleInput("S x", false) {
		t.Error("a non-numeric page should be rejected")
	}

	// B runs the last registered option regardless of the current page.
	if !m.HandleInput("B", false) {
		t.Fatal("back token should be handled")
	}
	if picked != "back" {
		t.Errorf("back token should run the last option, ran %q", picked)
	}
}

func TestAddOptionPreservesOrder(t *testing.T) {
	m := New("Test")
	labels := []string{"zebra", "apple", "mango"}
	for _, l := range labels {
		m.AddOption(l, func() {}, false)
	}

	out := m.Display(true, -1)
	for i, l := range labels {
		want := fmt.Sprintf("[%d] %s", i+1, l)
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in output:\n%s", want, out)
		}
	}
	if m.Len() != 3 {
		t.Errorf("Len() = %d, want 3", m.Len())
	}
}
