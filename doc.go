// Package console implements the session core of a guard workforce
// management console: the auth lifecycle coordinator that reacts to
// sign-in/sign-out transitions, the session guard that enforces
// single-active-device sessions, and the listener registry that keeps
// real-time subscriptions from outliving the session that created them.
package console
