// Package session implements the per-connection interactive controller.
// Each accepted connection gets one Session, which drives a menu stack over
// the line protocol: render the top menu, read one line, dispatch it, and
// repeat until the stack is empty or the client disconnects.
package session

import (
	"bufio"
	"fmt"
	"net"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/openshelf/openshelf/internal/domain"
	"github.com/openshelf/openshelf/internal/library"
	"github.com/openshelf/openshelf/internal/menu"
)

// ClearConsoleToken is a reserved outbound token telling the client to
// clear its terminal. It is a presentation hint, never parsed server-side.
const ClearConsoleToken = "CLEAR_CONSOLE"

// Session binds one client connection to the shared library manager.
type Session struct {
	id      string
	conn    net.Conn
	reader  *bufio.Reader
	manager *library.Manager
	logger  zerolog.Logger

	stack       []*menu.Menu
	currentUser *domain.User
	isAdmin     bool
}

// New creates a session over an accepted connection.
func New(conn net.Conn, manager *library.Manager, logger zerolog.Logger) *Session {
	id := uuid.NewString()
	return &Session{
		id:      id,
		conn:    conn,
		reader:  bufio.NewReader(conn),
		manager: manager,
		logger: logger.With().
			Str("component", "session").
			Str("session_id", id).
			Logger(),
	}
}

// ID returns the session identifier.
func (s *Session) ID() string {
	return s.id
}

// Run drives the menu loop until the stack empties (exit chosen) or the
// client disconnects. A disconnect only ends this session; the shared
// catalogue is untouched.
func (s *Session) Run() {
	s.logger.Info().Str("remote", s.conn.RemoteAddr().String()).Msg("session started")
	s.push(s.loginMenu())

	for len(s.stack) > 0 {
		top := s.stack[len(s.stack)-1]
		if err := s.send(top.Display(s.isAdmin, -1)); err != nil {
			s.logger.Info().Err(err).Msg("client disconnected")
			return
		}

		line, err := s.receive()
		if err != nil {
			s.logger.Info().Err(err).Msg("client disconnected")
			return
		}

		if !top.HandleInput(line, s.isAdmin) {
			if err := s.sendLine("Invalid choice, please try again."); err != nil {
				return
			}
		}
	}

	s.logger.Info().Msg("session ended")
}

// ===========================================
// Menu stack
// ===========================================

func (s *Session) push(m *menu.Menu) {
	s.stack = append(s.stack, m)
}

func (s *Session) pop() {
	if len(s.stack) > 0 {
		s.stack = s.stack[:len(s.stack)-1]
	}
}

// reset clears the stack and pushes a single menu. Used on logout and exit.
func (s *Session) reset(m *menu.Menu) {
	s.stack = s.stack[:0]
	if m != nil {
		s.push(m)
	}
}

// ===========================================
// Socket I/O
// ===========================================

func (s *Session) send(text string) error {
	_, err := fmt.Fprint(s.conn, text)
	return err
}

func (s *Session) sendLine(text string) error {
	_, err := fmt.Fprintf(s.conn, "%s\n", text)
	return err
}

func (s *Session) receive() (string, error) {
	line, err := s.reader.ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// clearConsole asks the client to clear its terminal.
func (s *Session) clearConsole() {
	s.sendLine(ClearConsoleToken)
}

// promptInput sends a prompt and reads one line back. An I/O failure is
// reported as an empty answer; the next menu render will surface the
// broken connection.
func (s *Session) promptInput(prompt string) string {
	if err := s.send(prompt); err != nil {
		return ""
	}
	answer, err := s.receive()
	if err != nil {
		return ""
	}
	return answer
}

// requireAdmin rejects the action unless the session is elevated. Menu
// visibility already hides admin entries, but the actions check again so
// authorization never rests on presentation alone.
func (s *Session) requireAdmin() bool {
	if s.isAdmin {
		return true
	}
	s.sendLine("Admin access required.")
	s.pause()
	return false
}

// areYouSure asks for confirmation before an action. Only "y" and "yes"
// confirm.
func (s *Session) areYouSure(undoable bool) bool {
	warning := "Are you sure? (y/n): "
	if !undoable {
		warning = "Are you sure? This action cannot be undone. (y/n): "
	}
	answer := strings.ToLower(strings.TrimSpace(s.promptInput(warning)))
	return answer == "y" || answer == "yes"
}

// pause waits for the client to press enter before redrawing a menu.
func (s *Session) pause() {
	s.promptInput("Press enter to continue...")
}
