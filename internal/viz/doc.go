// Package viz replays tank-level trajectories in the terminal.
//
// [Replay] is a Bubble Tea model that steps through a finished
// [dynamo.Trajectory], drawing the tank on a Braille [Canvas] next to a
// level chart and the current inflow and outflow.
//
// # Key Bindings
//
//	Space - Pause/Resume playback
//	+/-   - Faster/slower playback
//	[ ]   - Step back/forward one sample
//	R     - Restart from the first sample
//	T     - Cycle color themes
//	?     - Show help overlay
//	Q     - Quit
package viz
