package component

import "errors"

// ErrMountTargetMissing is returned by Mount when the target cannot be
// resolved. It is wrapped in a MorphError with code E101.
var ErrMountTargetMissing = errors.New("morph: mount target missing")

// errHookTimeout marks a continuation or promise hook that never settled.
var errHookTimeout = errors.New("morph: hook did not settle")
