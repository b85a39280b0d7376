package utils

// Set at build time with -ldflags "-X ...".
var (
	Tag        = "dev"
	GitHash    = "unknown"
	BuildStamp = "unknown"
)
