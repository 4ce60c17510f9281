// Package app wires the whole pipeline together: it resolves the mode and
// settings, builds the locator chain and processor pipeline once, sets up
// the model store and content cache, and runs the HTTP server with
// development-mode watching and live reload.
package app
