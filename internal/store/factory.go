package store

import (
	"fmt"

	"tmovies/config"
)

// New builds the Store selected by the settings. The file backend is the
// default; sqlite is opt-in.
func New(settings config.StoreSettings) (Store, error) {
	switch settings.Backend {
	case "", "file":
		return NewFileStore(settings.DataDir), nil
	case "sqlite":
		return NewSQLiteStore(settings.DataDir)
	default:
		return nil, fmt.Errorf("unknown store backend %q", settings.Backend)
	}
}
