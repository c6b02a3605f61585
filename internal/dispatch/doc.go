// Package dispatch executes resolved mappings against an input
// simulator. Exactly one action path runs per mapping, in strict
// priority: system command, macro, script, then direct key or modifier
// press. Macros and scripts run on their own goroutines so the input
// queue never blocks; modifier holds are ref-counted in a shared
// ledger so overlapping holds release correctly.
package dispatch
