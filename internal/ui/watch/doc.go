// Package watch implements the terminal dashboard using bubbletea's Elm architecture.
//
// The [Model] renders the timer, the current track and the host visibility
// from the server's notification stream, and maps single keys to API calls
// through a [Controller]. State is never guessed locally: every change shown
// on screen arrives as a notification.
package watch
