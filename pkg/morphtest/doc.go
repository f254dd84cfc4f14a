// Package morphtest provides testing helpers for morph components.
//
// A Harness owns a runtime, a document to mount into and a recorder for
// everything the runtime reports, which removes most of the setup a
// component test needs.
//
// # Quick Start
//
//	func TestCounter(t *testing.T) {
//	    h := morphtest.New(t)
//	    h.Mount(Counter(h.Runtime))
//	    h.Click("inc")
//	    h.ExpectContains(">1</output>")
//	}
//
// # Events
//
// Click and Fire dispatch on the first element whose ref attribute matches
// and then drain the microtask queue, so scheduled renders are committed
// before the call returns. Use FireIn to scope the lookup to a keyed item:
//
//	h.FireIn("patch", "remove", "click")
//
// # Assertions
//
//	h.ExpectContains("Welcome")
//	h.ExpectNotContains("Error")
//	h.ExpectElement("button")
//	h.ExpectAttribute("class", "todo done")
//
// # Recorder
//
// Recorder implements component.Observer and keeps every render event,
// hook failure and eviction for later inspection.
package morphtest
