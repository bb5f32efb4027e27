// Package ui implements the interactive terminal interface with bubbletea.
//
// The [Model] is a small state machine over four views:
//
//	PromptView -> BuildingView -> ResultView
//	                           -> ErrorView
//
// PromptView collects the mood prompt with a textinput. Submitting starts
// the build in a background command; BuildingView drains the pipeline's
// progress channel one message at a time (the bubbletea convention for
// streaming from a channel) and shows the last few updates under a spinner.
// Both terminal views offer "r" to start over with a fresh prompt.
package ui
