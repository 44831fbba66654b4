// Package bot routes inbound turns to the registration wizard, the
// discovery and matching flows, or the menu commands, and turns their
// results into outbound replies.
//
// Routing order for one turn:
//
//  1. An open registration flow consumes the turn. /start inside a flow
//     acts like the back button.
//  2. An image outside a flow gets an explanatory reply and changes nothing.
//  3. Menu commands, matched against localized or base-locale button labels.
//
// Store failures never escape Handle. They become a "try again later" reply,
// are logged and counted, and leave ephemeral state as it was so the user
// can repeat the action.
package bot
