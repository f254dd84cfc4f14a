// Package errors provides structured, coded errors for morph.
//
// Every failure the engine can report has a registered code that maps to a
// category, a short message, a longer detail, and a documentation link:
//
//	err := errors.New("E101").
//	    WithDetail("target #app was not found").
//	    Wrap(component.ErrMountTargetMissing)
//
//	errors.PrintError(err)
//	// ERROR E101: Mount target missing
//	//
//	//   target #app was not found
//	//
//	//   Hint: Pass a live node to Mount
//
// # Categories
//
//   - lifecycle: mount/unmount/render failures and hook failures
//   - cache: stale identity or ref cache entries (never surfaced)
//   - config: morph.json / morph.yaml loading and validation
//   - archive: snapshot archive storage
//   - cli: command line usage
//
// Recoverable codes (E102-E105) are logged by the runtime and never returned
// to callers.
package errors
