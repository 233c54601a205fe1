// Package audiooto is a demo iohw.AudioIO adapter backed by
// ebitengine/oto/v3. It has no input capture path: the process callback
// always receives silence for leftIn/rightIn, since oto is an output-only
// library. Live input capture is out of scope for this demo adapter; a
// production build would source leftIn/rightIn from a platform capture API
// instead.
package audiooto

import (
	"fmt"
	"sync"

	"github.com/ebitengine/oto/v3"
)

const (
	defaultSampleRate = 44_100
	defaultBlockSize  = 256
	bytesPerFrame     = 4 // stereo, 16-bit
)

// Player drives the process callback from oto's own playback goroutine,
// chunking whatever read size oto requests into fixed-size blocks so the
// callback always sees the same block length it was configured with.
type Player struct {
	sampleRate int
	blockSize  int

	ctx    *oto.Context
	player *oto.Player

	mu      sync.Mutex
	started bool

	process    func(blockIndex uint64, leftIn, rightIn, leftOut, rightOut []int16)
	blockIndex uint64
	silence    []int16
	leftOut    []int16
	rightOut   []int16
}

// New opens an oto playback context at the given sample rate and block
// size. Zero values fall back to 44.1kHz / 256-frame blocks.
func New(sampleRate, blockSize int) (*Player, error) {
	if sampleRate <= 0 {
		sampleRate = defaultSampleRate
	}
	if blockSize <= 0 {
		blockSize = defaultBlockSize
	}

	opts := &oto.NewContextOptions{
		SampleRate:   sampleRate,
		ChannelCount: 2,
		Format:       oto.FormatSignedInt16LE,
	}
	ctx, ready, err := oto.NewContext(opts)
	if err != nil {
		return nil, fmt.Errorf("audiooto: open context: %w", err)
	}
	<-ready

	return &Player{
		sampleRate: sampleRate,
		blockSize:  blockSize,
		ctx:        ctx,
		silence:    make([]int16, blockSize),
		leftOut:    make([]int16, blockSize),
		rightOut:   make([]int16, blockSize),
	}, nil
}

func (p *Player) SampleRate() int { return p.sampleRate }
func (p *Player) BlockSize() int  { return p.blockSize }

// Start registers process and begins playback. Only one process callback
// may be registered at a time.
func (p *Player) Start(process func(blockIndex uint64, leftIn, rightIn, leftOut, rightOut []int16)) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.started {
		return fmt.Errorf("audiooto: already started")
	}
	p.process = process
	p.player = p.ctx.NewPlayer(p)
	p.player.Play()
	p.started = true
	return nil
}

func (p *Player) Stop() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.started {
		return nil
	}
	p.started = false
	return p.player.Close()
}

// Read implements io.Reader for oto's player. It is called from oto's
// playback goroutine only, never concurrently with itself.
func (p *Player) Read(out []byte) (int, error) {
	frames := len(out) / bytesPerFrame
	written := 0
	for written < frames {
		n := frames - written
		if n > p.blockSize {
			n = p.blockSize
		}
		p.process(p.blockIndex, p.silence[:n], p.silence[:n], p.leftOut[:n], p.rightOut[:n])
		p.blockIndex++
		for i := 0; i < n; i++ {
			off := (written + i) * bytesPerFrame
			putInt16LE(out[off:], p.leftOut[i])
			putInt16LE(out[off+2:], p.rightOut[i])
		}
		written += n
	}
	return written * bytesPerFrame, nil
}

func putInt16LE(b []byte, v int16) {
	b[0] = byte(v)
	b[1] = byte(v >> 8)
}
