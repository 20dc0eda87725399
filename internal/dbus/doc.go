// Package dbus exposes the soundux playback controls on the session bus.
// The daemon exports a Service under io.github.jmylchreest.Soundux and emits
// SoundPlayed, SoundProgressed and SoundFinished signals; Client is the
// matching caller used by "soundux ctl".
package dbus
