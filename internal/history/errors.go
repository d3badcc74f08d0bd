package history

import "errors"

var (
	ErrStorageCorrupt = errors.New("stored conversation is corrupt")
	ErrStorageWrite   = errors.New("failed to write conversation")
)
