// Package core defines the core business logic and interfaces for pdf-to-audio.
package core

import "context"

// TextExtractor defines the interface for pulling readable text out of a
// document on disk.
type TextExtractor interface {
	ExtractFile(ctx context.Context, path string) (string, error)
}

// SpeechSynthesizer defines the interface for a text-to-speech engine.
// Implementations return the complete encoded audio for the given text.
type SpeechSynthesizer interface {
	Synthesize(ctx context.Context, text string) ([]byte, error)
}

// ArtifactStore defines the interface for persisting pipeline artifacts
// (extracted text, synthesized audio) under flat string keys.
type ArtifactStore interface {
	Save(ctx context.Context, key string, data []byte) error
	Load(ctx context.Context, key string) ([]byte, error)
	Exists(ctx context.Context, key string) (bool, error)
}
