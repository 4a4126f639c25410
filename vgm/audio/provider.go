// Package audio defines what an output backend needs from a sample source.
package audio

// Provider produces interleaved 16 bit stereo frames on demand.
type Provider interface {
	// Play writes up to count frames into out (2*count samples) and returns
	// how many were written. Fewer than count means the source ended.
	Play(count int, out []int16) (int, error)
	SampleRate() int
	Ended() bool

	// Voice debugging controls

	MuteVoices(mask int)
	Voices() []string
}
