// Package repl runs gridwire-cli commands interactively.
//
// Each line is split into arguments and handed to an Executor, normally
// the same urfave/cli app that serves one-shot invocations. A line ending
// in "?" lists the commands that complete it.
package repl
