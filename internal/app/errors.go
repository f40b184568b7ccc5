package app

import "github.com/Guilhem-Bonnet/Stream-Channel/internal/ports"

var (
	ErrNotFound = ports.ErrNotFound
	ErrConflict = ports.ErrConflict
)
