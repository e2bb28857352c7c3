// Package surface defines the contracts between the view lifecycle
// service and the embedded content surfaces it manages.
//
// A Surface is one renderable content area (one mini-app's page). The
// lifecycle service drives it through the Surface interface and
// receives its asynchronous events through an EventSink. The headless
// subpackage provides the in-process implementation used by the
// backend service and its tests.
package surface
