// Package audio plays sounds on output devices.
//
// Every playing sound owns one hardware output stream and one decoder. The
// Player keeps the table of active sounds keyed by stream and exposes the
// control API (Play, Stop, Pause, Resume, Seek). The audio backend calls the
// Player's render function from its own thread once per buffer; render pulls
// frames from the decoder, applies the device volume from the Registry and
// reports progress. When a sound runs out of frames render hands the teardown
// to a queue.Queue worker, since a stream cannot be released from inside its
// own callback.
//
// The malgo (miniaudio) backend drives real devices; decoding uses the beep
// wav, mp3, vorbis and flac decoders.
package audio
