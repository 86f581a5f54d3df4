package interfaces

import "context"

// EmotionReading is the normalized output of the emotion recognizer: a
// confidence distribution over emotion labels plus the dominant label.
type EmotionReading struct {
	Emotions map[string]float64
	Dominant string
}

// EmotionService is the narrow client for the external facial-emotion
// recognizer. An empty image yields an empty reading, not an error; the
// context builder treats that as "unknown, neutral-weighted".
type EmotionService interface {
	Detect(ctx context.Context, imageBytes []byte) (*EmotionReading, error)
}
