// Package view holds the runtime state of mini-app views: the Handle
// carrying one view's surface, load state, bounds and stacking rank,
// and the Registry mapping view ids to handles. Both are owned and
// serialized by the lifecycle service.
package view
