package dbus

import (
	"fmt"
)

// EmitStateChanged emits the StateChanged signal.
func (s *IndicatorServer) EmitStateChanged(st State) error {
	s.mu.RLock()
	conn, running := s.conn, s.running
	s.mu.RUnlock()

	if conn == nil || !running {
		return fmt.Errorf("not connected to D-Bus")
	}

	err := conn.Emit(DBusPath, DBusInterface+".StateChanged", stateArgs(st)...)
	if err != nil {
		return fmt.Errorf("failed to emit StateChanged signal: %w", err)
	}

	s.logger.Debug("emitted StateChanged signal",
		"present", st.Present,
		"glyph", st.Glyph,
		"internal_checked", st.InternalChecked,
		"headphone_checked", st.HeadphoneChecked,
	)
	return nil
}
