// Package menu implements the interactive menu screens rendered over the
// line protocol. A menu is an ordered list of labelled actions; the session
// layer owns the stack of menus and feeds client input into the top one.
package menu

import (
	"fmt"
	"strconv"
	"strings"
)

// DefaultPageSize is the number of options shown per page when paging is
// enabled.
const DefaultPageSize = 8

// Option is a single selectable menu entry. AdminOnly entries are hidden
// from regular users but still occupy their position in the numbering, so
// the index a user types is stable regardless of who is looking.
type Option struct {
	Label     string
	Action    func()
	AdminOnly bool
}

// Menu is a named, pageable list of options. It holds no cross-menu state;
// navigation between menus happens through option actions that manipulate
// the session's menu stack.
type Menu struct {
	name        string
	options     []Option
	paging      bool
	pageSize    int
	currentPage int
}

// New creates a menu without paging.
func New(name string) *Menu {
	return &Menu{name: name}
}

// NewPaged creates a menu that renders pageSize options per page. A
// non-positive pageSize falls back to DefaultPageSize.
func NewPaged(name string, pageSize int) *Menu {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &Menu{name: name, paging: true, pageSize: pageSize}
}

// Name returns the menu's display name.
func (m *Menu) Name() string {
	return m.name
}

// Len returns the number of registered options.
func (m *Menu) Len() int {
	return len(m.options)
}

// AddOption appends an option. Insertion order determines the number a
// user types to select it.
func (m *Menu) AddOption(label string, action func(), adminOnly bool) {
	m.options = append(m.options, Option{Label: label, Action: action, AdminOnly: adminOnly})
}

// pageCount returns the number of pages the options span.
func (m *Menu) pageCount() int {
	if !m.paging || len(m.options) == 0 {
		return 1
	}
	return (len(m.options) + m.pageSize - 1) / m.pageSize
}

// pageBounds returns the half-open option range for a page.
func (m *Menu) pageBounds(page int) (int, int) {
	start := page * m.pageSize
	end := start + m.pageSize
	if end > len(m.options) {
		end = len(m.options)
	}
	return start, end
}

// Display renders the menu for the caller. Non-admin callers do not see
// admin-only entries, but the numbers shown still count the hidden
// positions. Passing a page of -1 renders the current page; passing a
// valid page number also makes it current.
func (m *Menu) Display(isAdmin bool, page int) string {
	if page >= 0 && page < m.pageCount() {
		m.currentPage = page
	}

	var b strings.Builder
	fmt.Fprintf(&b, "===== %s =====\n", m.name)

	start, end := 0, len(m.options)
	paged := m.paging && len(m.options) > m.pageSize
	if paged {
		start, end = m.pageBounds(m.currentPage)
	}

	for i := start; i < end; i++ {
		opt := m.options[i]
		if opt.AdminOnly && !isAdmin {
			continue
		}
		label := opt.Label
		if opt.AdminOnly {
			label = "[Admin] " + label
		}
		fmt.Fprintf(&b, "[%d] %s\n", i+1, label)
	}

	if paged {
		fmt.Fprintf(&b, "[B] [BACK]\n")
		fmt.Fprintf(&b, "--- Page %d of %d ---\n", m.currentPage+1, m.pageCount())
		if m.currentPage > 0 {
			b.WriteString("[P] Previous\n")
		}
		if m.currentPage < m.pageCount()-1 {
			b.WriteString("[N] Next\n")
		}
		b.WriteString("[S <page>] Select page\n")
	}

	b.WriteString("Enter choice: ")
	return b.String()
}

// HandleInput interprets one line of client input. Navigation tokens move
// between pages; a number selects the option at that 1-based position.
// Returns false for unparseable or out-of-range input so the caller can
// re-prompt. An admin-only entry chosen by a non-admin is not executed;
// the last registered option runs instead, so menus must always register
// their back/exit action last and actions must enforce authorization
// themselves.
func (m *Menu) HandleInput(raw string, isAdmin bool) bool {
	input := strings.TrimSpace(raw)
	if input == "" {
		return false
	}

	if m.paging {
		switch input[0] {
		case 'P', 'p':
			return m.gotoPage(m.currentPage - 1)
		case 'N', 'n':
			return m.gotoPage(m.currentPage + 1)
		case 'B', 'b':
			return m.runOption(len(m.options) - 1)
		case 'S', 's':
			target, err := strconv.Atoi(strings.TrimSpace(input[1:]))
			if err != nil {
				return false
			}
			return m.gotoPage(target - 1)
		}
	}

	choice, err := strconv.Atoi(input)
	if err != nil {
		return false
	}
	if choice < 1 || choice > len(m.options) {
		return false
	}

	idx := choice - 1
	if m.options[idx].AdminOnly && !isAdmin {
		idx = len(m.options) - 1
	}
	return m.runOption(idx)
}

func (m *Menu) gotoPage(page int) bool {
	if page < 0 || page >= m.pageCount() {
		return false
	}
	m.currentPage = page
	return true
}

func (m *Menu) runOption(idx int) bool {
	if idx < 0 || idx >= len(m.options) {
		return false
	}
	m.options[idx].Action()
	return true
}
