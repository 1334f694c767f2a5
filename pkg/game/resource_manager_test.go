package game

import (
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/decker502/rolet/pkg/readiness"
	"github.com/decker502/rolet/pkg/scheduler"
	"github.com/hajimehoshi/ebiten/v2/audio"
)

// Global audio context shared by all tests
// Ebitengine only allows one audio context to be created
var testAudioContext *audio.Context

// TestMain sets up the shared audio context before running tests
func TestMain(m *testing.M) {
	testAudioContext = audio.NewContext(48000)
	os.Exit(m.Run())
}

// createTestImage writes a w×h PNG and returns its path.
func createTestImage(t *testing.T, w, h int) string {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.NRGBA{R: 20, G: 90, B: 40, A: 255})
		}
	}

	path := filepath.Join(t.TempDir(), "bg.png")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("Failed to create test image: %v", err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatalf("Failed to encode test image: %v", err)
	}
	return path
}

func waitBriefly() {
	time.Sleep(time.Millisecond)
}

// TestNewResourceManager tests the creation of a new ResourceManager instance.
func TestNewResourceManager(t *testing.T) {
	rm := NewResourceManager(testAudioContext, scheduler.New())

	if rm.imageCache == nil || rm.audioCache == nil || rm.fontFaceCache == nil {
		t.Error("caches should be initialized")
	}
	if rm.audioContext != testAudioContext {
		t.Error("audioContext not set correctly")
	}
}

// TestLoadImage 测试同步加载与缓存
func TestLoadImage(t *testing.T) {
	rm := NewResourceManager(testAudioContext, scheduler.New())
	path := createTestImage(t, 12, 30)

	if rm.GetImage(path) != nil {
		t.Fatal("加载前 GetImage 应返回 nil")
	}

	img, err := rm.LoadImage(path)
	if err != nil {
		t.Fatalf("LoadImage failed: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 12 || b.Dy() != 30 {
		t.Errorf("尺寸 = %v, 期望 12x30", b.Size())
	}

	again, _ := rm.LoadImage(path)
	if again != img || rm.GetImage(path) != img {
		t.Error("重复加载应返回缓存的同一实例")
	}
}

// TestLoadImageErrors 测试加载失败
func TestLoadImageErrors(t *testing.T) {
	dir := t.TempDir()
	bad := filepath.Join(dir, "bad.png")
	if err := os.WriteFile(bad, []byte("not a png"), 0644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		path string
	}{
		{"文件不存在", filepath.Join(dir, "missing.png")},
		{"格式错误", bad},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rm := NewResourceManager(testAudioContext, scheduler.New())
			if _, err := rm.LoadImage(tt.path); err == nil {
				t.Error("期望返回错误")
			}
		})
	}
}

// TestLoadImageAsyncLoaded 测试异步加载完成后通过调度器通知
func TestLoadImageAsyncLoaded(t *testing.T) {
	s := scheduler.New()
	rm := NewResourceManager(testAudioContext, s)
	path := createTestImage(t, 8, 16)

	h := rm.LoadImageAsync(path)
	events := make(chan readiness.Event, 1)
	h.Subscribe(func(ev readiness.Event) { events <- ev })

	// 解码在工作协程完成，结果投递回调度器
	for i := 0; i < 1000 && !h.Loaded(); i++ {
		s.Flush()
		if !h.Loaded() {
			waitBriefly()
		}
	}
	if !h.Loaded() || h.Err() != nil {
		t.Fatalf("异步加载未完成: loaded=%v err=%v", h.Loaded(), h.Err())
	}
	if got := h.NaturalSize(); got.X != 8 || got.Y != 16 {
		t.Errorf("NaturalSize = %v, 期望 (8,16)", got)
	}
	if ev := <-events; ev != readiness.EventLoad {
		t.Errorf("事件 = %v, 期望 load", ev)
	}

	// 已缓存的图像立即完成
	cached := rm.LoadImageAsync(path)
	if !cached.Loaded() || cached.Image() != h.Image() {
		t.Error("缓存命中时句柄应立即完成")
	}
}

// TestLoadImageAsyncConcurrent 测试并发请求共享一次解码
func TestLoadImageAsyncConcurrent(t *testing.T) {
	rm := NewResourceManager(testAudioContext, scheduler.New())
	path := createTestImage(t, 4, 4)

	var wg sync.WaitGroup
	results := make([]image.Image, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			img, err := rm.decodeImage(path)
			if err != nil {
				t.Errorf("decodeImage failed: %v", err)
				return
			}
			results[i] = img
		}(i)
	}
	wg.Wait()

	for i := 1; i < len(results); i++ {
		if results[i] != results[0] {
			t.Fatal("并发解码应得到同一个结果")
		}
	}
}

// TestLoadAudioErrors 测试音频加载失败
func TestLoadAudioErrors(t *testing.T) {
	dir := t.TempDir()
	broken := filepath.Join(dir, "broken.wav")
	if err := os.WriteFile(broken, []byte("dummy data"), 0644); err != nil {
		t.Fatal(err)
	}
	unsupported := filepath.Join(dir, "music.flac")
	if err := os.WriteFile(unsupported, []byte("dummy data"), 0644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		path string
	}{
		{"文件不存在", filepath.Join(dir, "missing.mp3")},
		{"WAV 数据损坏", broken},
		{"不支持的格式", unsupported},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rm := NewResourceManager(testAudioContext, scheduler.New())
			if _, err := rm.LoadAudio(tt.path); err == nil {
				t.Error("期望返回错误")
			}
			if rm.GetAudioPlayer(tt.path) != nil {
				t.Error("失败时不应缓存播放器")
			}
		})
	}
}

// TestLoadFont 测试内置字体与缓存
func TestLoadFont(t *testing.T) {
	rm := NewResourceManager(nil, scheduler.New())

	face, err := rm.LoadFont("", 24)
	if err != nil {
		t.Fatalf("LoadFont failed: %v", err)
	}
	if face.Size != 24 {
		t.Errorf("Size = %v, 期望 24", face.Size)
	}
	again, _ := rm.LoadFont("", 24)
	if again != face {
		t.Error("相同字号应返回缓存实例")
	}

	if _, err := rm.LoadFont(filepath.Join(t.TempDir(), "missing.ttf"), 24); err == nil {
		t.Error("字体文件不存在时应返回错误")
	}
}

// TestReadFile 测试未初始化嵌入资源时从磁盘读取
func TestReadFile(t *testing.T) {
	rm := NewResourceManager(nil, scheduler.New())
	_, err := rm.ReadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("err = %v, 期望 os.ErrNotExist", err)
	}
}
