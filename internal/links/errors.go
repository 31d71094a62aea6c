package links

import "fmt"

// UnsafeDestinationError reports a destination that would escape the
// worktree root.
type UnsafeDestinationError struct {
	Dest   string
	Reason string
}

func (e *UnsafeDestinationError) Error() string {
	return fmt.Sprintf("unsafe link destination %q: %s", e.Dest, e.Reason)
}

// DestinationConflictError reports an existing destination that is not the
// expected link, without force.
type DestinationConflictError struct {
	Dest string
}

func (e *DestinationConflictError) Error() string {
	return fmt.Sprintf("%s already exists and is not the expected link (use --link-force to replace files or symlinks)", e.Dest)
}

// ForceDeleteRefusedError reports a forced replacement of a real directory.
type ForceDeleteRefusedError struct {
	Dest string
}

func (e *ForceDeleteRefusedError) Error() string {
	return fmt.Sprintf("refusing to replace directory %s, even with force", e.Dest)
}
