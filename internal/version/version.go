package version

// Version is the release identifier stamped into run records.
const Version = "0.1.0"
