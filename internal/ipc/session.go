package ipc

// SessionAccess is the session's attach mode.
type SessionAccess int

const (
	SessionLocal SessionAccess = iota
	SessionGlobal
	SessionExplicitAttach
)

// Session is a client handle onto a server.
type Session struct {
	Server     *Server
	SlotCount  int
	Access     SessionAccess
	GuestCookie uint32
}

// NewSession constructs a session bound to server with the given slot
// capacity. mode follows SessionCreate/SessionShare's convention: 2
// selects explicit global attach, anything else local.
func NewSession(server *Server, slotCount int, mode int) *Session {
	access := SessionLocal
	if mode == 2 {
		access = SessionExplicitAttach
	}
	return &Session{Server: server, SlotCount: slotCount, Access: access}
}

// Share implements SessionShare: alters the session's access mode. Mode
// 2 selects explicit global attach, else local. The "mirror into the
// owning process, then close the old handle" half of SessionShare is
// handle-table bookkeeping performed by internal/dispatch, since Session
// itself has no handle-table reference.
func (s *Session) Share(mode int) {
	if mode == 2 {
		s.Access = SessionExplicitAttach
	} else {
		s.Access = SessionLocal
	}
}
