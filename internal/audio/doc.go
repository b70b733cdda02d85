// Package audio plays the optional feedback sound after a route switch.
// It uses the beep library to play WAV, OGG and MP3 files.
package audio
