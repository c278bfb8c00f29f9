package modcompaterr

var (
	// ErrIncompatibleMods indicates that at least one checked mod targets a different compatibility epoch than the
	// installed application (only raised when --fail-on-old is given).
	ErrIncompatibleMods = NewExpectedErr("discovered mods that are not compatible with the installed version")

	// ErrTableUpdateAvailable indicates that the remote compatibility table differs from the local one.
	ErrTableUpdateAvailable = NewExpectedErr("compatibility table update available")
)
