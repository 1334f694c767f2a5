package game

import (
	"bytes"
	"fmt"
	"image"
	_ "image/jpeg" // Register JPEG decoder
	_ "image/png"  // Register PNG decoder
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/decker502/rolet/pkg/embedded"
	"github.com/decker502/rolet/pkg/scheduler"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/audio"
	"github.com/hajimehoshi/ebiten/v2/audio/mp3"
	"github.com/hajimehoshi/ebiten/v2/audio/vorbis"
	"github.com/hajimehoshi/ebiten/v2/audio/wav"
	"github.com/hajimehoshi/ebiten/v2/examples/resources/fonts"
	"github.com/hajimehoshi/ebiten/v2/text/v2"
	"golang.org/x/sync/singleflight"
)

// ResourceManager loads and caches the page's images, audio and fonts.
//
// Synchronous loaders (LoadImage, LoadAudio, LoadFont) must be called on the
// game goroutine. The async loaders decode on a worker goroutine and deliver
// the result back through the scheduler, so the returned AssetHandle only
// changes state on the game goroutine. Concurrent requests for the same path
// share one decode through a singleflight group.
//
// Usage:
//
//	rm := NewResourceManager(audioContext, sched)
//	bg := rm.LoadImageAsync("assets/images/forest.png")
//	signal := readiness.Observe(bg, sched)
type ResourceManager struct {
	audioContext *audio.Context
	sched        *scheduler.Scheduler
	readFile     func(path string) ([]byte, error)

	mu            sync.Mutex
	imageCache    map[string]*ebiten.Image
	decodedCache  map[string]image.Image
	audioCache    map[string]*audio.Player
	fontFaceCache map[string]*text.GoTextFace

	decodes singleflight.Group
}

// NewResourceManager creates a ResourceManager.
//
// Parameters:
//   - audioContext: the global audio context, may be nil when audio is unavailable.
//   - sched: the scheduler async results are posted to.
//
// Files are read from the embedded filesystem once it is initialized, and from
// disk otherwise.
func NewResourceManager(audioContext *audio.Context, sched *scheduler.Scheduler) *ResourceManager {
	return &ResourceManager{
		audioContext:  audioContext,
		sched:         sched,
		readFile:      readResourceFile,
		imageCache:    make(map[string]*ebiten.Image),
		decodedCache:  make(map[string]image.Image),
		audioCache:    make(map[string]*audio.Player),
		fontFaceCache: make(map[string]*text.GoTextFace),
	}
}

func readResourceFile(path string) ([]byte, error) {
	if embedded.IsInitialized() {
		return embedded.ReadFile(path)
	}
	return os.ReadFile(path)
}

// ReadFile reads a resource file (embedded filesystem first, disk otherwise).
func (rm *ResourceManager) ReadFile(path string) ([]byte, error) {
	return rm.readFile(path)
}

// decodeImage decodes an image file once, shared by all concurrent callers.
func (rm *ResourceManager) decodeImage(path string) (image.Image, error) {
	v, err, _ := rm.decodes.Do("image:"+path, func() (interface{}, error) {
		rm.mu.Lock()
		cached, ok := rm.decodedCache[path]
		rm.mu.Unlock()
		if ok {
			return cached, nil
		}

		data, err := rm.readFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open image file %s: %w", path, err)
		}
		img, _, err := image.Decode(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("failed to decode image %s: %w", path, err)
		}

		rm.mu.Lock()
		rm.decodedCache[path] = img
		rm.mu.Unlock()
		return img, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(image.Image), nil
}

// toEbitenImage converts a decoded image to a GPU image, cached by path.
// Must run on the game goroutine.
func (rm *ResourceManager) toEbitenImage(path string, img image.Image) *ebiten.Image {
	rm.mu.Lock()
	defer rm.mu.Unlock()

	if cached, ok := rm.imageCache[path]; ok {
		return cached
	}
	eimg := ebiten.NewImageFromImage(img)
	rm.imageCache[path] = eimg
	return eimg
}

// LoadImage loads an image synchronously and caches it.
func (rm *ResourceManager) LoadImage(path string) (*ebiten.Image, error) {
	if img := rm.GetImage(path); img != nil {
		return img, nil
	}
	decoded, err := rm.decodeImage(path)
	if err != nil {
		return nil, err
	}
	return rm.toEbitenImage(path, decoded), nil
}

// GetImage returns a cached image, or nil if it has not been loaded.
func (rm *ResourceManager) GetImage(path string) *ebiten.Image {
	rm.mu.Lock()
	defer rm.mu.Unlock()
	return rm.imageCache[path]
}

// LoadImageAsync starts loading an image and returns its handle immediately.
// A cached image yields a handle that is already loaded.
func (rm *ResourceManager) LoadImageAsync(path string) *AssetHandle {
	h := newAssetHandle(path)
	if img := rm.GetImage(path); img != nil {
		h.completeImage(img, nil)
		return h
	}

	go func() {
		decoded, err := rm.decodeImage(path)
		rm.sched.Post(func() {
			if err != nil {
				log.Printf("[ResourceManager] Warning: %v", err)
				h.completeImage(nil, err)
				return
			}
			h.completeImage(rm.toEbitenImage(path, decoded), nil)
		})
	}()
	return h
}

// decodeAudio reads and decodes an audio file into a seekable stream.
// Supported formats: .mp3, .ogg, .wav.
func (rm *ResourceManager) decodeAudio(path string) (io.ReadSeeker, int64, error) {
	data, err := rm.readFile(path)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to open audio file %s: %w", path, err)
	}
	reader := bytes.NewReader(data)

	sampleRate := 48000
	if rm.audioContext != nil {
		sampleRate = rm.audioContext.SampleRate()
	}

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".mp3":
		s, err := mp3.DecodeWithSampleRate(sampleRate, reader)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to decode MP3 audio %s: %w", path, err)
		}
		return s, s.Length(), nil
	case ".ogg":
		s, err := vorbis.DecodeWithSampleRate(sampleRate, reader)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to decode OGG audio %s: %w", path, err)
		}
		return s, s.Length(), nil
	case ".wav":
		s, err := wav.DecodeWithSampleRate(sampleRate, reader)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to decode WAV audio %s: %w", path, err)
		}
		return s, s.Length(), nil
	default:
		return nil, 0, fmt.Errorf("unsupported audio format: %s (supported: .mp3, .ogg, .wav)", ext)
	}
}

// newLoopPlayer wraps the stream in an infinite loop for background music.
func (rm *ResourceManager) newLoopPlayer(path string, stream io.ReadSeeker, length int64) (*audio.Player, error) {
	if rm.audioContext == nil {
		return nil, fmt.Errorf("no audio context for %s", path)
	}

	rm.mu.Lock()
	defer rm.mu.Unlock()
	if cached, ok := rm.audioCache[path]; ok {
		return cached, nil
	}

	player, err := rm.audioContext.NewPlayer(audio.NewInfiniteLoop(stream, length))
	if err != nil {
		return nil, fmt.Errorf("failed to create audio player for %s: %w", path, err)
	}
	rm.audioCache[path] = player
	return player, nil
}

// LoadAudio loads looping background music synchronously.
// The player is ready to play but not started.
func (rm *ResourceManager) LoadAudio(path string) (*audio.Player, error) {
	if p := rm.GetAudioPlayer(path); p != nil {
		return p, nil
	}
	stream, length, err := rm.decodeAudio(path)
	if err != nil {
		return nil, err
	}
	return rm.newLoopPlayer(path, stream, length)
}

// GetAudioPlayer returns a cached player, or nil.
func (rm *ResourceManager) GetAudioPlayer(path string) *audio.Player {
	rm.mu.Lock()
	defer rm.mu.Unlock()
	return rm.audioCache[path]
}

// LoadAudioAsync starts loading looping background music and returns its handle.
func (rm *ResourceManager) LoadAudioAsync(path string) *AssetHandle {
	h := newAssetHandle(path)
	if p := rm.GetAudioPlayer(path); p != nil {
		h.completeAudio(p, nil)
		return h
	}

	go func() {
		v, err, _ := rm.decodes.Do("audio:"+path, func() (interface{}, error) {
			stream, length, err := rm.decodeAudio(path)
			if err != nil {
				return nil, err
			}
			return rm.newLoopPlayer(path, stream, length)
		})
		rm.sched.Post(func() {
			if err != nil {
				log.Printf("[ResourceManager] Warning: %v", err)
				h.completeAudio(nil, err)
				return
			}
			h.completeAudio(v.(*audio.Player), nil)
		})
	}()
	return h
}

// LoadFont creates a text face of the given size.
// An empty path uses the bundled M+ 1p font.
func (rm *ResourceManager) LoadFont(path string, size float64) (*text.GoTextFace, error) {
	cacheKey := fmt.Sprintf("%s:%.1f", path, size)

	rm.mu.Lock()
	cached, ok := rm.fontFaceCache[cacheKey]
	rm.mu.Unlock()
	if ok {
		return cached, nil
	}

	var fontData []byte
	if path == "" {
		fontData = fonts.MPlus1pRegular_ttf
	} else {
		data, err := rm.readFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read font file %s: %w", path, err)
		}
		fontData = data
	}

	source, err := text.NewGoTextFaceSource(bytes.NewReader(fontData))
	if err != nil {
		return nil, fmt.Errorf("failed to create font source for %s: %w", path, err)
	}
	face := &text.GoTextFace{
		Source:    source,
		Size:      size,
		Direction: text.DirectionLeftToRight,
	}

	rm.mu.Lock()
	rm.fontFaceCache[cacheKey] = face
	rm.mu.Unlock()
	return face, nil
}
