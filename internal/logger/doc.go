// Package logger provides a small wrapper around zap to offer:
//   - a global sugared logger with a console encoder on stderr,
//   - context helpers (ToContext/FromContext/WithName/WithKV),
//   - level configuration and parsing utilities,
//   - convenience functions (InfoKV, WarnKV, ErrorKV, etc.).
//
// The generator pipeline passes a context through every stage and logs
// through it, so stage names and file paths show up on every line.
package logger
