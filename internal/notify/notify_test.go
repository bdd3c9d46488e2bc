package notify

import (
	"context"
	"errors"
	"testing"

	"github.com/sandeepkv93/habitd/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestMultiJoinsErrors(t *testing.T) {
	ctx := context.Background()
	first := &Recorder{}
	failing := &Recorder{Err: errors.New("boom")}
	multi := Multi{first, nil, failing, Log{Logger: zap.NewNop()}}

	err := multi.Dispatch(ctx, Notification{Title: "t", EntityID: "g1", Kind: model.FireAtTime})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
	assert.Len(t, first.Sent(), 1)
	assert.Equal(t, 1, failing.Count("g1", model.FireAtTime))
}

func TestChannelDropsWhenFull(t *testing.T) {
	ch := NewChannel(1)
	ctx := context.Background()
	require.NoError(t, ch.Dispatch(ctx, Notification{ID: 1}))
	require.NoError(t, ch.Dispatch(ctx, Notification{ID: 2}))

	got := <-ch.C()
	assert.Equal(t, 1, got.ID)
	assert.Equal(t, 1, ch.Dropped())
}

func TestSinkFuncAndNoop(t *testing.T) {
	called := false
	sink := SinkFunc(func(context.Context, Notification) error {
		called = true
		return nil
	})
	require.NoError(t, sink.Dispatch(context.Background(), Notification{}))
	assert.True(t, called)
	assert.NoError(t, Noop{}.Dispatch(context.Background(), Notification{}))
	assert.NoError(t, Log{}.Dispatch(context.Background(), Notification{}))
}

func TestEscapeAppleScript(t *testing.T) {
	assert.Equal(t, `say \"hi\" \\ bye`, escapeAppleScript(`say "hi" \ bye`))
}
