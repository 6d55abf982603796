// Package integration provides integration tests for the eventsync webhook server.
// They run the complete application against fake Eventbrite and GitHub APIs and
// check the combined result of each orchestration.
package integration
