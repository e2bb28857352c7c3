// Package profile defines mini-app profiles and their registry.
//
// A profile carries everything the lifecycle service needs to create
// and load one mini-app: candidate URLs in preference order, surface
// capability flags, load-time quirk handling (blank staging page,
// visibility scripts, CSS injection), navigation policy patterns, and
// layout hints. Profiles come from the built-in catalog (seeder) and
// from a profile directory on disk (loader); disk entries override
// built-ins with the same id.
package profile
