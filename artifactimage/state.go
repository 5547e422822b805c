// Copyright (c) Ultraviolet
// SPDX-License-Identifier: Apache-2.0
package artifactimage

import "fmt"

// State is the progress of one acquisition.
type State uint8

const (
	Unstarted State = iota
	Downloading
	Rewriting
	Loading
	Verifying
	Loaded
	Failed
)

var stateNames = map[State]string{
	Unstarted:   "Unstarted",
	Downloading: "Downloading",
	Rewriting:   "Rewriting",
	Loading:     "Loading",
	Verifying:   "Verifying",
	Loaded:      "Loaded",
	Failed:      "Failed",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}

	return fmt.Sprintf("State(%d)", s)
}

// transitions lists the states reachable from each state. Failed may be
// retried; Loaded is terminal.
var transitions = map[State][]State{
	Unstarted:   {Downloading},
	Downloading: {Rewriting, Failed},
	Rewriting:   {Loading, Failed},
	Loading:     {Verifying, Failed},
	Verifying:   {Loaded, Failed},
	Failed:      {Downloading},
}

func (s State) canTransition(to State) bool {
	for _, next := range transitions[s] {
		if next == to {
			return true
		}
	}

	return false
}
