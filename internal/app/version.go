package app

// Version is the soundlink release version.
// Overridden at build time via -ldflags "-X .../internal/app.Version=...".
var Version = "dev"
