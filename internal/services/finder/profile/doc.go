// Package profile defines the fixed gameplay choices a player profile may hold,
// the validation rules applied before a profile is written, and the text card
// shown to other players.
//
// Enum fields are stored as their canonical English values. Menus and cards
// render localized labels through catalog keys, and user input is accepted in
// either the localized or the canonical form.
package profile
