package version

// Name identifies the service in logs and traces.
const Name = "todo-api"

// Version is overridden at build time via -ldflags.
var Version = "dev"
