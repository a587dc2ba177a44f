// Package branding centralizes product naming so adapters and surfaces stay
// consistent.
package branding

// AppName is the user-facing product name.
const AppName = "Worldline.Studio"

// Slug is the machine-facing product identifier used by protocol adapters.
const Slug = "worldline.studio"
