package core

// EngineAPIVersion is the API version archives are expected to be built with.
// A mismatch is reported but never fatal.
const EngineAPIVersion uint32 = 250014

// BuildCommitHash is stamped at link time:
//
//	go build -ldflags "-X github.com/spaghettifunk/anima/engine/core.BuildCommitHash=$(git rev-parse HEAD)"
var BuildCommitHash = ""
