// Package audio provides audio data validation and assembly for the
// synthesis pipeline.
package audio

import (
	"bytes"
	"errors"
)

// Static errors.
var (
	ErrNoSegments   = errors.New("no audio segments to assemble")
	ErrEmptySegment = errors.New("audio segment is empty")
	ErrNotMPEG      = errors.New("data is not an MPEG audio stream")
)

// id3Magic is the tag prefix some encoders prepend to MPEG streams.
var id3Magic = []byte("ID3")

// mpegSyncByte is the first byte of an MPEG frame sync word.
const mpegSyncByte = 0xFF

// IsMPEG reports whether data plausibly begins an MPEG audio stream, either
// with a frame sync word or an ID3 tag.
func IsMPEG(data []byte) bool {
	if len(data) < 2 {
		return false
	}

	if bytes.HasPrefix(data, id3Magic) {
		return true
	}

	return data[0] == mpegSyncByte && data[1]&0xE0 == 0xE0
}

// Concat assembles per-chunk MPEG segments into a single stream. MPEG frames
// are self-delimiting, so segments concatenate without re-encoding. Every
// segment must be non-empty and look like MPEG audio.
func Concat(segments [][]byte) ([]byte, error) {
	if len(segments) == 0 {
		return nil, ErrNoSegments
	}

	total := 0

	for _, segment := range segments {
		if len(segment) == 0 {
			return nil, ErrEmptySegment
		}

		if !IsMPEG(segment) {
			return nil, ErrNotMPEG
		}

		total += len(segment)
	}

	combined := make([]byte, 0, total)
	for _, segment := range segments {
		combined = append(combined, segment...)
	}

	return combined, nil
}
