// Package daemon provides the main orchestration for sounduxd.
// It coordinates the playback manager, the sound library and its watcher,
// the D-Bus control server and configuration hot-reload.
package daemon
