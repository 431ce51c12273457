package sim

import "sync"

// Link is the state shared by both ends of the emulated HDMI link: the
// cipher frame counter.
type Link struct {
	mu          sync.Mutex
	frame       uint32
	autoAdvance uint32
	vblanks     int
}

// NewLink creates a link at frame 0.
func NewLink() *Link {
	return &Link{}
}

// Frame returns the current frame number.
func (l *Link) Frame() uint32 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.frame
}

// Advance moves the link forward n frames.
func (l *Link) Advance(n uint32) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.frame += n
}

// SetAutoAdvance makes every cipher status read advance the link by n
// frames. Zero freezes the frame counter.
func (l *Link) SetAutoAdvance(n uint32) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.autoAdvance = n
}

// WaitVBlank implements hdcp.VBlankWaiter by advancing one frame.
func (l *Link) WaitVBlank() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.frame++
	l.vblanks++
}

// VBlanks returns how many times WaitVBlank was called.
func (l *Link) VBlanks() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.vblanks
}

// tick returns the frame for a status read, applying auto-advance.
func (l *Link) tick() uint32 {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.frame += l.autoAdvance
	return l.frame
}

func epoch(frame uint32) uint32 {
	return frame / 128
}
