package concierge

// Version is the library and CLI version. Release builds override it with
// -ldflags "-X github.com/ArnavBalyan/concierge.Version=...".
var Version = "0.1.0-dev"
