package analytics

import (
	"path/filepath"
	"testing"
	"time"

	"analytics-go/src/libs/socket"
	"analytics-go/src/packages/event"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFrameMeta(t *testing.T) {
	t.Run("should parse counts right", func(t *testing.T) {
		h := socket.SocketHeader{
			ID:        42,
			Timestamp: 1_600_000_000_000_000,
			Reserved:  [8]uint32{1, 6},
		}
		body := []byte(`{"lc_curr":{"straight":2,"left":1},"lc_cum":{"straight":10},"roi":{"zone":3}}`)

		f, err := ParseFrameMeta(h, body)
		require.NoError(t, err)

		assert.Equal(t, uint64(42), f.FrameNum)
		assert.Equal(t, uint32(1), f.SourceID)
		assert.Equal(t, uint32(6), f.NumObjs)
		assert.Equal(t, map[string]uint64{"straight": 2, "left": 1}, f.LCCurrCnt)
		assert.Equal(t, map[string]uint64{"straight": 10}, f.LCCumCnt)
		assert.Equal(t, uint64(3), f.CurrentSum())
		assert.Equal(t, []string{"left", "straight"}, f.Directions())
	})

	t.Run("should accept empty body", func(t *testing.T) {
		f, err := ParseFrameMeta(socket.SocketHeader{ID: 1}, nil)
		require.NoError(t, err)
		assert.Equal(t, uint64(0), f.CurrentSum())
	})

	t.Run("should refuse broken body", func(t *testing.T) {
		_, err := ParseFrameMeta(socket.SocketHeader{ID: 1}, []byte(`{"lc_curr":`))
		assert.Error(t, err)
	})

	t.Run("should skip non numeric counts", func(t *testing.T) {
		f, err := ParseFrameMeta(socket.SocketHeader{}, []byte(`{"lc_curr":{"straight":"x","left":-1,"right":4}}`))
		require.NoError(t, err)
		assert.Equal(t, map[string]uint64{"right": 4}, f.LCCurrCnt)
	})
}

func TestProbe(t *testing.T) {
	a := event.NewBudgetAllocator(0)
	l := event.NewLifecycle(a)
	p := NewProbe(l, "device_test")

	t.Run("should attach record right", func(t *testing.T) {
		f := &FrameMeta{
			SourceID:  2,
			FrameNum:  30,
			LCCurrCnt: map[string]uint64{"straight": 3},
			LCCumCnt:  map[string]uint64{"straight": 10},
		}

		assert.True(t, p.Process(f))
		require.Len(t, f.Records(), 1)

		rec := f.Records()[0]
		assert.Equal(t, "device_test", rec.SensorStr)
		assert.Equal(t, uint64(3), rec.Counter("lc_curr_straight"))
		assert.Equal(t, uint64(10), rec.Counter("lc_cum_straight"))
		assert.Equal(t, uint32(2), rec.SourceID)
		assert.Equal(t, uint64(30), rec.FrameID)
		assert.NotEmpty(t, rec.Timestamp)

		for _, r := range f.Detach() {
			l.Release(r)
		}
		assert.Empty(t, f.Records())
	})

	t.Run("should skip frame without crossing", func(t *testing.T) {
		f := &FrameMeta{
			LCCurrCnt: map[string]uint64{"straight": 0},
			LCCumCnt:  map[string]uint64{"straight": 10},
		}

		assert.False(t, p.Process(f))
		assert.Empty(t, f.Records())
	})

	t.Run("should skip record on allocation failure", func(t *testing.T) {
		p := NewProbe(event.NewLifecycle(event.NewBudgetAllocator(1)), "device_test")
		f := &FrameMeta{LCCurrCnt: map[string]uint64{"straight": 1}}

		assert.False(t, p.Process(f))
		assert.Empty(t, f.Records())
	})

	assert.Equal(t, int64(0), a.InUse())
}

func TestSource(t *testing.T) {
	path := filepath.Join(t.TempDir(), "analytics.sock")
	l := event.NewLifecycle(nil)

	s := NewSource(path, NewProbe(l, "device_test"))

	frames := make(chan *FrameMeta, 4)
	s.OnFrame = func(f *FrameMeta) {
		frames <- f
	}

	require.NoError(t, s.Open())
	defer s.Close()

	client, err := socket.Dial(path, time.Second)
	require.NoError(t, err)
	defer client.Close()

	t.Run("should deliver frame with record", func(t *testing.T) {
		err := client.Send(
			socket.SocketHeader{ID: 5, Reserved: [8]uint32{0, 2}},
			[]byte(`{"lc_curr":{"straight":1},"lc_cum":{"straight":4}}`),
		)
		require.NoError(t, err)

		select {
		case f := <-frames:
			assert.Equal(t, uint64(5), f.FrameNum)
			require.Len(t, f.Records(), 1)
			assert.Equal(t, uint64(4), f.Records()[0].Counter("lc_cum_straight"))
		case <-time.After(time.Second):
			t.Fatal("timeout")
		}
	})
}
