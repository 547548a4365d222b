package audio

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"

	"github.com/ebitengine/oto/v3"

	"github.com/kaiku-audio/kaiku"
)

const (
	SampleRate   = 44100
	channelCount = 2
)

// Context wraps the oto audio context. There can be only one per process.
type Context struct {
	ctx *oto.Context
}

func NewContext() (*Context, error) {
	ctx, ready, err := oto.NewContext(&oto.NewContextOptions{
		SampleRate:   SampleRate,
		ChannelCount: channelCount,
		Format:       oto.FormatFloat32LE,
	})
	if err != nil {
		return nil, fmt.Errorf("cannot create audio context: %w", err)
	}
	<-ready
	return &Context{ctx: ctx}, nil
}

// Play starts pulling audio from the source. The source's ReadAudio runs on
// oto's audio goroutine, so everything it touches has to be owned by that
// goroutine or communicated through channels.
func (c *Context) Play(source kaiku.AudioSource) io.Closer {
	p := c.ctx.NewPlayer(&sourceReader{source: source})
	p.Play()
	return p
}

func (c *Context) Close() error {
	if err := c.ctx.Suspend(); err != nil {
		return fmt.Errorf("cannot suspend audio context: %w", err)
	}
	return nil
}

// sourceReader adapts an AudioSource to the io.Reader oto pulls from,
// converting stereo float32 frames to the little-endian byte stream the
// context was opened with.
type sourceReader struct {
	source kaiku.AudioSource
	buffer kaiku.AudioBuffer
}

const bytesPerFrame = channelCount * 4

func (r *sourceReader) Read(p []byte) (int, error) {
	frames := len(p) / bytesPerFrame
	if frames == 0 {
		return 0, nil
	}
	if cap(r.buffer) < frames {
		r.buffer = make(kaiku.AudioBuffer, frames)
	}
	r.buffer = r.buffer[:frames]
	n, err := r.source.ReadAudio(r.buffer)
	if err != nil {
		return 0, err
	}
	for i, frame := range r.buffer[:n] {
		binary.LittleEndian.PutUint32(p[i*bytesPerFrame:], math.Float32bits(frame[0]))
		binary.LittleEndian.PutUint32(p[i*bytesPerFrame+4:], math.Float32bits(frame[1]))
	}
	return n * bytesPerFrame, nil
}
