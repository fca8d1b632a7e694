package updater

import "errors"

// Pre-flight errors abort a run before any file is touched.
var (
	// ErrDirectoryNotFound is returned when the plugin directory does not exist
	ErrDirectoryNotFound = errors.New("plugin directory not found")
	// ErrUnsupportedVersion is returned for a game version the registry does not know
	ErrUnsupportedVersion = errors.New("unsupported game version")
)

// Per-artifact errors recorded on an ApplyResult.
var (
	// ErrAmbiguousRelease is returned when a release exposes more than one file
	ErrAmbiguousRelease = errors.New("release has more than one file, update it manually")
	// ErrMissingHash is returned when the registry declares no SHA-512 digest for a file
	ErrMissingHash = errors.New("registry declares no sha512 hash for file")
	// ErrInvalidFilename is returned when the declared file name is unusable
	ErrInvalidFilename = errors.New("invalid file name")
	// ErrDestinationExists is returned when another file already occupies the new file name
	ErrDestinationExists = errors.New("destination file already exists")
	// ErrHeld is returned for artifacts listed in the holds file
	ErrHeld = errors.New("plugin is held")
)
