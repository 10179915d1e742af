// Package process runs shell commands and reports their exit code and
// output.
//
// Run captures output and returns it once the command ends. Stream relays
// each line to caller-supplied writers as it is produced while still
// capturing it. Both wait at most a timeout (DefaultTimeout unless
// overridden) and fail with a *model.CommandError when the exit code is not
// one of the acceptable codes (only 0 by default).
//
// Output is decoded as UTF-8 when valid and as Latin-1 otherwise, so that
// tools emitting legacy encodings still produce readable text.
package process
