package audio

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/soundux/internal/model"
	"github.com/jmylchreest/soundux/internal/queue"
)

type playerFixture struct {
	backend  *fakeBackend
	devices  *Registry
	finishes *queue.Queue
	sink     *recordingSink
	player   *Player
	decoders map[string]*fakeDecoder
}

func newPlayerFixture(t *testing.T) *playerFixture {
	t.Helper()

	f := &playerFixture{
		backend: &fakeBackend{devices: []DeviceInfo{
			{Name: "Headphones"},
			{Name: "Speakers", IsDefault: true},
		}},
		sink:     &recordingSink{},
		decoders: map[string]*fakeDecoder{},
	}

	f.devices = NewRegistry(nil)
	require.NoError(t, f.devices.Init(f.backend, nil))

	f.finishes = queue.New(16, 1, nil)
	f.player = NewPlayer(f.backend, f.devices, f.finishes, f.sink, nil)
	f.player.SetDecoderOpener(fakeOpener(f.decoders))

	t.Cleanup(func() {
		f.player.StopAll()
		f.finishes.Stop()
	})

	return f
}

// sound registers a decoder of length frames at 44.1kHz under name.
func (f *playerFixture) sound(name string, length uint64) (model.Sound, *fakeDecoder) {
	d := newFakeDecoder(44100, length)
	path := "/sounds/" + name + ".wav"
	f.decoders[path] = d
	return model.Sound{Name: name, Path: path}, d
}

func (f *playerFixture) play(t *testing.T, sound model.Sound) (model.PlayingSound, *fakeStream) {
	t.Helper()
	ps, err := f.player.Play(sound, nil)
	require.NoError(t, err)
	return ps, f.backend.stream(f.backend.streamCount() - 1)
}

func (f *playerFixture) startQueue(t *testing.T) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	f.finishes.Start(ctx)
}

func ids(sounds []model.PlayingSound) []uint32 {
	result := make([]uint32, 0, len(sounds))
	for _, s := range sounds {
		result = append(result, s.ID)
	}
	return result
}

func TestPlayer_PlayDefaultDevice(t *testing.T) {
	f := newPlayerFixture(t)
	sound, _ := f.sound("bell", 44100)

	ps, stream := f.play(t, sound)

	assert.Equal(t, "Speakers", ps.Device.Name)
	assert.True(t, ps.Device.IsDefault)
	assert.Equal(t, uint32(1), ps.ID)
	assert.Equal(t, uint64(44100), ps.Length)
	assert.Equal(t, uint64(1000), ps.LengthInMs)
	assert.False(t, ps.Paused)

	assert.Equal(t, "Speakers", stream.cfg.Device)
	assert.Equal(t, uint32(44100), stream.cfg.SampleRate)
	assert.Equal(t, 2, stream.cfg.Channels)

	played, _, _ := f.sink.counts()
	assert.Equal(t, 1, played)
	assert.Equal(t, []uint32{1}, ids(f.player.PlayingSounds()))
}

func TestPlayer_PlayExplicitDevice(t *testing.T) {
	f := newPlayerFixture(t)
	sound, _ := f.sound("bell", 100)

	ps, err := f.player.Play(sound, &model.AudioDevice{Name: "Headphones"})
	require.NoError(t, err)

	assert.Equal(t, "Headphones", ps.Device.Name)
	assert.Equal(t, "Headphones", f.backend.stream(0).cfg.Device)
}

func TestPlayer_PlayWithoutDevices(t *testing.T) {
	f := newPlayerFixture(t)
	f.backend.devErr = errHardware
	require.ErrorIs(t, f.devices.Init(f.backend, nil), ErrDeviceEnumeration)

	sound, _ := f.sound("bell", 100)
	ps, err := f.player.Play(sound, nil)
	require.NoError(t, err)

	assert.Empty(t, ps.Device.Name, "backend default device")
	assert.Equal(t, model.DefaultVolume, ps.Device.Volume)
}

func TestPlayer_IDsIncrease(t *testing.T) {
	f := newPlayerFixture(t)
	a, _ := f.sound("a", 100)
	b, _ := f.sound("b", 100)

	first, _ := f.play(t, a)
	second, _ := f.play(t, b)
	require.NoError(t, f.player.Stop(first.ID))
	third, _ := f.play(t, a)

	assert.Less(t, first.ID, second.ID)
	assert.Less(t, second.ID, third.ID)
	assert.Equal(t, []uint32{second.ID, third.ID}, ids(f.player.PlayingSounds()))
}

func TestPlayer_OverlapDisallowed(t *testing.T) {
	f := newPlayerFixture(t)
	f.player.SetAllowOverlapping(false)

	a, decA := f.sound("a", 1000)
	b, decB := f.sound("b", 1000)
	c, _ := f.sound("c", 1000)

	_, streamA := f.play(t, a)
	assert.Len(t, f.player.PlayingSounds(), 1)

	second, streamB := f.play(t, b)
	assert.Equal(t, []uint32{second.ID}, ids(f.player.PlayingSounds()))
	_, _, closes := streamA.counts()
	assert.Equal(t, 1, closes)
	assert.Equal(t, 1, decA.closeCount())

	third, _ := f.play(t, c)
	assert.Equal(t, []uint32{third.ID}, ids(f.player.PlayingSounds()))
	_, _, closes = streamB.counts()
	assert.Equal(t, 1, closes)
	assert.Equal(t, 1, decB.closeCount())

	_, _, finished := f.sink.counts()
	assert.Zero(t, finished, "stopping is not finishing")
}

func TestPlayer_OverlapAllowed(t *testing.T) {
	f := newPlayerFixture(t)
	a, _ := f.sound("a", 1000)
	b, _ := f.sound("b", 1000)

	first, _ := f.play(t, a)
	second, _ := f.play(t, b)

	assert.Equal(t, []uint32{first.ID, second.ID}, ids(f.player.PlayingSounds()))
}

func TestPlayer_PlayErrors(t *testing.T) {
	t.Run("decoder", func(t *testing.T) {
		f := newPlayerFixture(t)

		_, err := f.player.Play(model.Sound{Path: "/missing.wav"}, nil)
		require.ErrorIs(t, err, ErrDecoderInit)
		assert.Zero(t, f.backend.streamCount())
		assert.Empty(t, f.player.PlayingSounds())
	})

	t.Run("stream init", func(t *testing.T) {
		f := newPlayerFixture(t)
		f.backend.openErr = errHardware
		sound, dec := f.sound("a", 100)

		_, err := f.player.Play(sound, nil)
		require.ErrorIs(t, err, ErrStreamInit)
		require.ErrorIs(t, err, errHardware)
		assert.Equal(t, 1, dec.closeCount())
		assert.Empty(t, f.player.PlayingSounds())
	})

	t.Run("stream start", func(t *testing.T) {
		f := newPlayerFixture(t)
		f.backend.startErr = errHardware
		sound, dec := f.sound("a", 100)

		_, err := f.player.Play(sound, nil)
		require.ErrorIs(t, err, ErrStreamStart)

		_, _, closes := f.backend.stream(0).counts()
		assert.Equal(t, 1, closes)
		assert.Equal(t, 1, dec.closeCount())
		assert.Empty(t, f.player.PlayingSounds())

		played, _, _ := f.sink.counts()
		assert.Zero(t, played)
	})

	t.Run("failure leaves others playing", func(t *testing.T) {
		f := newPlayerFixture(t)
		a, _ := f.sound("a", 100)
		first, _ := f.play(t, a)

		_, err := f.player.Play(model.Sound{Path: "/missing.wav"}, nil)
		require.Error(t, err)
		assert.Equal(t, []uint32{first.ID}, ids(f.player.PlayingSounds()))
	})
}

func TestPlayer_Stop(t *testing.T) {
	f := newPlayerFixture(t)
	sound, dec := f.sound("a", 1000)
	ps, stream := f.play(t, sound)

	require.NoError(t, f.player.Stop(ps.ID))
	assert.Empty(t, f.player.PlayingSounds())

	_, _, closes := stream.counts()
	assert.Equal(t, 1, closes)
	assert.Equal(t, 1, dec.closeCount())

	err := f.player.Stop(ps.ID)
	require.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, 1, dec.closeCount())

	_, ok := f.player.PlayingSound(stream.id)
	assert.False(t, ok)
}

func TestPlayer_StopAll(t *testing.T) {
	f := newPlayerFixture(t)
	a, decA := f.sound("a", 1000)
	b, decB := f.sound("b", 1000)
	f.play(t, a)
	f.play(t, b)

	f.player.StopAll()

	assert.Empty(t, f.player.PlayingSounds())
	assert.Equal(t, 1, decA.closeCount())
	assert.Equal(t, 1, decB.closeCount())

	f.player.StopAll()
	assert.Equal(t, 1, decA.closeCount())
}

func TestPlayer_PauseResume(t *testing.T) {
	f := newPlayerFixture(t)
	sound, _ := f.sound("a", 44100)
	ps, stream := f.play(t, sound)

	_, err := f.player.SetRepeat(ps.ID, true)
	require.NoError(t, err)
	stream.pump(1000)

	paused, err := f.player.Pause(ps.ID)
	require.NoError(t, err)
	assert.True(t, paused.Paused)
	assert.Equal(t, uint64(1000), paused.ReadFrames)

	again, err := f.player.Pause(ps.ID)
	require.NoError(t, err)
	assert.Equal(t, paused, again, "pause is idempotent")

	_, stops, _ := stream.counts()
	assert.Equal(t, 1, stops)
	assert.Nil(t, stream.pump(1000), "paused stream does not render")

	listed := f.player.PlayingSounds()
	require.Len(t, listed, 1)
	assert.True(t, listed[0].Paused)

	resumed, err := f.player.Resume(ps.ID)
	require.NoError(t, err)
	assert.False(t, resumed.Paused)
	assert.True(t, resumed.Repeat, "repeat survives pause")
	assert.Equal(t, uint64(1000), resumed.ReadFrames)

	again, err = f.player.Resume(ps.ID)
	require.NoError(t, err)
	assert.Equal(t, resumed, again)

	starts, _, _ := stream.counts()
	assert.Equal(t, 2, starts)
}

func TestPlayer_ResumeFailureStaysPaused(t *testing.T) {
	f := newPlayerFixture(t)
	sound, _ := f.sound("a", 1000)
	ps, stream := f.play(t, sound)

	_, err := f.player.Pause(ps.ID)
	require.NoError(t, err)

	stream.mu.Lock()
	stream.startErr = errHardware
	stream.mu.Unlock()

	snap, err := f.player.Resume(ps.ID)
	require.ErrorIs(t, err, ErrStreamStart)
	assert.True(t, snap.Paused)
	assert.Len(t, f.player.PlayingSounds(), 1)
}

func TestPlayer_NotFound(t *testing.T) {
	f := newPlayerFixture(t)

	_, err := f.player.Pause(42)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = f.player.Resume(42)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = f.player.Seek(42, 0)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = f.player.SetRepeat(42, true)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, f.player.Stop(42), ErrNotFound)
}

func TestPlayer_SeekSnapshot(t *testing.T) {
	f := newPlayerFixture(t)
	sound, _ := f.sound("a", 44100)
	ps, _ := f.play(t, sound)

	tests := []struct {
		name       string
		ms         uint64
		wantFrames uint64
		wantMs     uint64
	}{
		{"start", 0, 0, 0},
		{"middle", 500, 22050, 500},
		{"end", 1000, 44100, 1000},
		{"past end clamps", 5000, 44100, 1000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			snap, err := f.player.Seek(ps.ID, tt.ms)
			require.NoError(t, err)
			assert.Equal(t, tt.wantFrames, snap.ReadFrames)
			assert.Equal(t, tt.wantMs, snap.ReadInMs)
		})
	}
}

func TestPlayer_SeekRoundTrip(t *testing.T) {
	lengths := []struct {
		rate   uint32
		frames uint64
	}{
		{44100, 44100},
		{48000, 123457},
		{8000, 7},
		{22050, 1},
	}

	for _, l := range lengths {
		f := newPlayerFixture(t)
		d := newFakeDecoder(l.rate, l.frames)
		f.decoders["/sounds/x.wav"] = d

		ps, err := f.player.Play(model.Sound{Path: "/sounds/x.wav"}, nil)
		require.NoError(t, err)

		frameMs := float64(ps.LengthInMs) / float64(ps.Length)
		for p := uint64(0); p <= ps.LengthInMs; p += max(ps.LengthInMs/97, 1) {
			snap, err := f.player.Seek(ps.ID, p)
			require.NoError(t, err)
			diff := math.Abs(float64(snap.ReadInMs) - float64(p))
			assert.LessOrEqual(t, diff, frameMs,
				"rate=%d frames=%d seek=%d got=%d", l.rate, l.frames, p, snap.ReadInMs)
		}
	}
}

func TestRender_ProgressThrottle(t *testing.T) {
	f := newPlayerFixture(t)
	sound, _ := f.sound("a", 44100)
	ps, stream := f.play(t, sound)

	stream.pump(22050)

	got, ok := f.player.PlayingSound(stream.id)
	require.True(t, ok)
	assert.Equal(t, ps.ID, got.ID)
	assert.Equal(t, uint64(22050), got.ReadFrames)
	assert.Equal(t, uint64(500), got.ReadInMs)

	_, progressed, _ := f.sink.counts()
	assert.Zero(t, progressed, "exactly half a second does not report yet")

	stream.pump(441)
	_, progressed, _ = f.sink.counts()
	require.Equal(t, 1, progressed)

	f.sink.mu.Lock()
	last := f.sink.progressed[0]
	f.sink.mu.Unlock()
	assert.Equal(t, uint64(22491), last.ReadFrames)
	assert.Equal(t, uint64(510), last.ReadInMs)

	for range 10 {
		stream.pump(441)
	}
	_, progressed, _ = f.sink.counts()
	assert.Equal(t, 1, progressed, "counter was reset")
}

func TestRender_AppliesDeviceVolume(t *testing.T) {
	f := newPlayerFixture(t)
	f.devices.ApplyOverrides(map[string]float64{"Speakers": 0.25})
	sound, dec := f.sound("a", 1000)
	_, stream := f.play(t, sound)

	stream.pump(10)
	assert.InDelta(t, 0.25, dec.currentVolume(), 1e-9)

	require.NoError(t, f.devices.SetVolume("Speakers", 0))
	out := stream.pump(10)
	assert.Zero(t, dec.currentVolume())
	assert.Len(t, f.player.PlayingSounds(), 1, "zero volume keeps playing")
	assert.Equal(t, make([]byte, len(out)), out)

	got, _ := f.player.PlayingSound(stream.id)
	assert.Equal(t, uint64(20), got.ReadFrames, "silent frames still advance")
}

func TestRender_SeekAppliedByCallback(t *testing.T) {
	f := newPlayerFixture(t)
	sound, dec := f.sound("a", 44100)
	ps, stream := f.play(t, sound)

	stream.pump(100)
	_, err := f.player.Seek(ps.ID, 500)
	require.NoError(t, err)
	assert.Equal(t, uint64(100), dec.position(), "seek is deferred to the audio thread")

	stream.pump(100)
	assert.Equal(t, uint64(22050), dec.position())
	got, _ := f.player.PlayingSound(stream.id)
	assert.Equal(t, uint64(22050), got.ReadFrames)

	stream.pump(100)
	got, _ = f.player.PlayingSound(stream.id)
	assert.Equal(t, uint64(22150), got.ReadFrames)
	assert.Equal(t, uint64(22150), dec.position())
}

func TestRender_FinishesAtEnd(t *testing.T) {
	f := newPlayerFixture(t)
	f.startQueue(t)
	sound, dec := f.sound("a", 1000)
	ps, stream := f.play(t, sound)

	stream.pump(600)
	stream.pump(600)
	assert.Len(t, f.player.PlayingSounds(), 1)

	stream.pump(600)

	require.Eventually(t, func() bool {
		_, _, finished := f.sink.counts()
		return finished == 1
	}, time.Second, 5*time.Millisecond)

	assert.Empty(t, f.player.PlayingSounds())
	assert.Equal(t, 1, dec.closeCount())
	_, _, closes := stream.counts()
	assert.Equal(t, 1, closes)

	f.sink.mu.Lock()
	finished := f.sink.finished[0]
	f.sink.mu.Unlock()
	assert.Equal(t, ps.ID, finished.ID)
	assert.Equal(t, uint64(1000), finished.ReadFrames)

	assert.ErrorIs(t, f.player.Stop(ps.ID), ErrNotFound)
}

func TestRender_SeekToEndFinishes(t *testing.T) {
	f := newPlayerFixture(t)
	f.startQueue(t)
	sound, _ := f.sound("a", 44100)
	ps, stream := f.play(t, sound)

	snap, err := f.player.Seek(ps.ID, ps.LengthInMs)
	require.NoError(t, err)
	assert.Equal(t, ps.Length, snap.ReadFrames)

	stream.pump(512)
	stream.pump(512)

	require.Eventually(t, func() bool {
		return len(f.player.PlayingSounds()) == 0
	}, time.Second, 5*time.Millisecond)

	_, _, finished := f.sink.counts()
	assert.Equal(t, 1, finished)
}

func TestRender_RepeatLoops(t *testing.T) {
	f := newPlayerFixture(t)
	f.startQueue(t)
	sound, dec := f.sound("a", 1000)
	ps, stream := f.play(t, sound)

	_, err := f.player.SetRepeat(ps.ID, true)
	require.NoError(t, err)

	for range 5 {
		stream.pump(1000)
		stream.pump(1000)
		got, ok := f.player.PlayingSound(stream.id)
		require.True(t, ok)
		assert.Zero(t, got.ReadFrames)
		assert.Zero(t, dec.position())
	}

	_, _, finished := f.sink.counts()
	assert.Zero(t, finished)
	assert.False(t, f.finishes.Pending(uint64(stream.id)))

	_, err = f.player.SetRepeat(ps.ID, false)
	require.NoError(t, err)
	stream.pump(1000)
	stream.pump(1000)

	require.Eventually(t, func() bool {
		_, _, finished := f.sink.counts()
		return finished == 1
	}, time.Second, 5*time.Millisecond)
}

func TestRender_RepeatLoopsAfterSeekToEnd(t *testing.T) {
	f := newPlayerFixture(t)
	f.startQueue(t)
	sound, dec := f.sound("a", 1000)
	ps, stream := f.play(t, sound)

	_, err := f.player.SetRepeat(ps.ID, true)
	require.NoError(t, err)
	_, err = f.player.Seek(ps.ID, ps.LengthInMs)
	require.NoError(t, err)

	// The first callback applies the seek, the second hits the end.
	stream.pump(1000)
	stream.pump(1000)

	got, ok := f.player.PlayingSound(stream.id)
	require.True(t, ok)
	assert.Zero(t, got.ReadFrames)
	assert.Zero(t, dec.position())
	assert.False(t, f.finishes.Pending(uint64(stream.id)))

	stream.pump(500)
	got, ok = f.player.PlayingSound(stream.id)
	require.True(t, ok)
	assert.Equal(t, uint64(500), got.ReadFrames)

	_, _, finished := f.sink.counts()
	assert.Zero(t, finished)
	assert.Len(t, f.player.PlayingSounds(), 1)
}

func TestRender_EndOfStreamDoesNotAllocate(t *testing.T) {
	f := newPlayerFixture(t)
	sound, _ := f.sound("a", 1000)
	_, stream := f.play(t, sound)

	out := make([]byte, 1000*2*BytesPerSample)
	f.player.render(stream.id, out, 1000)
	f.player.render(stream.id, out, 1000)
	require.True(t, f.finishes.Pending(uint64(stream.id)))

	allocs := testing.AllocsPerRun(100, func() {
		f.player.render(stream.id, out, 1000)
	})
	assert.Zero(t, allocs)
}

func TestRender_CorruptSoundTerminates(t *testing.T) {
	for _, repeat := range []bool{false, true} {
		f := newPlayerFixture(t)
		f.startQueue(t)
		sound, dec := f.sound("corrupt", 44100)
		dec.corrupt = true

		ps, stream := f.play(t, sound)
		_, err := f.player.SetRepeat(ps.ID, repeat)
		require.NoError(t, err)

		stream.pump(512)

		require.Eventually(t, func() bool {
			return len(f.player.PlayingSounds()) == 0
		}, time.Second, 5*time.Millisecond, "repeat=%v", repeat)
		assert.Equal(t, 1, dec.closeCount())
	}
}

func TestRender_FinishSkipsPausedSound(t *testing.T) {
	f := newPlayerFixture(t)
	sound, dec := f.sound("a", 100)
	ps, stream := f.play(t, sound)

	stream.pump(100)
	stream.pump(100)
	require.True(t, f.finishes.Pending(uint64(stream.id)))

	_, err := f.player.Pause(ps.ID)
	require.NoError(t, err)

	f.startQueue(t)
	require.Eventually(t, func() bool {
		return !f.finishes.Pending(uint64(stream.id))
	}, time.Second, 5*time.Millisecond)

	assert.Len(t, f.player.PlayingSounds(), 1)
	assert.Zero(t, dec.closeCount())

	_, err = f.player.Resume(ps.ID)
	require.NoError(t, err)
	stream.pump(100)

	require.Eventually(t, func() bool {
		return len(f.player.PlayingSounds()) == 0
	}, time.Second, 5*time.Millisecond)
}

func TestPlayer_StopBeatsFinish(t *testing.T) {
	f := newPlayerFixture(t)
	sound, dec := f.sound("a", 100)
	ps, stream := f.play(t, sound)

	stream.pump(100)
	stream.pump(100)
	require.True(t, f.finishes.Pending(uint64(stream.id)))

	require.NoError(t, f.player.Stop(ps.ID))

	f.startQueue(t)
	require.Eventually(t, func() bool {
		return f.finishes.Len() == 0
	}, time.Second, 5*time.Millisecond)

	_, _, finished := f.sink.counts()
	assert.Zero(t, finished)
	assert.Equal(t, 1, dec.closeCount())
	_, _, closes := stream.counts()
	assert.Equal(t, 1, closes)
}

func TestPlayer_ConcurrentStopAndFinish(t *testing.T) {
	for range 50 {
		f := newPlayerFixture(t)
		sound, dec := f.sound("a", 100)
		ps, stream := f.play(t, sound)

		stream.pump(100)
		stream.pump(100)

		var wg sync.WaitGroup
		var stopErr error
		wg.Add(2)
		go func() {
			defer wg.Done()
			stopErr = f.player.Stop(ps.ID)
		}()
		go func() {
			defer wg.Done()
			f.finishes.Start(context.Background())
		}()
		wg.Wait()

		require.Eventually(t, func() bool {
			return f.finishes.Len() == 0
		}, time.Second, time.Millisecond)

		_, _, finished := f.sink.counts()
		_, _, closes := stream.counts()

		assert.Equal(t, 1, closes, "stream released once")
		assert.Equal(t, 1, dec.closeCount(), "decoder released once")
		assert.LessOrEqual(t, finished, 1)
		if stopErr == nil {
			assert.Zero(t, finished, "stopped sound does not finish")
		} else {
			assert.True(t, errors.Is(stopErr, ErrNotFound))
			assert.Equal(t, 1, finished)
		}
		assert.Empty(t, f.player.PlayingSounds())

		f.finishes.Stop()
	}
}

func TestPlayer_ConcurrentControl(t *testing.T) {
	f := newPlayerFixture(t)
	f.startQueue(t)

	sounds := make([]model.Sound, 8)
	for i := range sounds {
		sounds[i], _ = f.sound(string(rune('a'+i)), 2000)
	}

	var wg sync.WaitGroup
	for _, sound := range sounds {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ps, err := f.player.Play(sound, nil)
			if !assert.NoError(t, err) {
				return
			}
			stream, _ := f.findStream(ps)
			for range 4 {
				_, _ = f.player.Pause(ps.ID)
				_, _ = f.player.Resume(ps.ID)
				_, _ = f.player.Seek(ps.ID, 10)
				if stream != nil {
					stream.pump(256)
				}
				_ = f.player.PlayingSounds()
			}
		}()
	}
	wg.Wait()

	f.player.StopAll()
	assert.Empty(t, f.player.PlayingSounds())

	for i := range f.backend.streamCount() {
		_, _, closes := f.backend.stream(i).counts()
		assert.Equal(t, 1, closes)
	}
}

// findStream returns the fake stream playing ps.
func (f *playerFixture) findStream(ps model.PlayingSound) (*fakeStream, bool) {
	for i := range f.backend.streamCount() {
		s := f.backend.stream(i)
		if got, ok := f.player.PlayingSound(s.id); ok && got.ID == ps.ID {
			return s, true
		}
	}
	return nil, false
}
