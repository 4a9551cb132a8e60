package version

// Version is the release of speechbatch, overridden at build time with
// -ldflags "-X speechbatch/pkg/version.Version=...".
var Version = "v0.3.1"
