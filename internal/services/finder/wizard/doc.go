// Package wizard runs the multi-turn registration dialogue that builds a
// player profile.
//
// Each user with an open flow has one State: the current Step and the draft
// profile gathered so far. A dispatch table maps every step to its prompt
// and input handler. Rejected input re-prompts the same step and leaves the
// draft unchanged; the back signal discards the flow at any step. The draft
// is written to the profile store only when the flow reaches StepComplete,
// so editing an existing profile leaves the stored row intact until then.
package wizard
