package sessionlog

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hydrochat-core/server/internal/agent/model"
)

type recordingSink struct {
	mu   sync.Mutex
	got  []model.SessionRecord
	fail error
}

func (s *recordingSink) Publish(ctx context.Context, r model.SessionRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.got = append(s.got, r)
	return s.fail
}

func TestAppendKeepsOrder(t *testing.T) {
	sink := &recordingSink{}
	l := New(sink)
	ctx := context.Background()

	assert.Equal(t, 1, l.Append(ctx, model.NewUserRecord("t1", "hello")))
	assert.Equal(t, 2, l.Append(ctx, model.NewOptimizerRecord("t1", "hi")))
	assert.Equal(t, 3, l.Append(ctx, model.NewAssistantRecord("t1", "answer", model.RoutingInfo{Location: "x"})))

	recs := l.Records()
	require.Len(t, recs, 3)
	assert.Equal(t, []model.Role{model.RoleUser, model.RoleOptimizer, model.RoleAssistant},
		[]model.Role{recs[0].Role(), recs[1].Role(), recs[2].Role()})
	assert.Equal(t, recs, sink.got)
}

func TestRecordsIsACopy(t *testing.T) {
	l := New()
	l.Append(context.Background(), model.NewUserRecord("t1", "hello"))

	recs := l.Records()
	recs[0] = model.NewSystemRecord("t1", "tampered")
	assert.Equal(t, model.RoleUser, l.Records()[0].Role())
}

func TestSince(t *testing.T) {
	l := New()
	for i := 0; i < 5; i++ {
		l.Append(context.Background(), model.NewUserRecord("t", fmt.Sprint(i)))
	}
	assert.Len(t, l.Since(3), 2)
	assert.Equal(t, "3", l.Since(3)[0].Content())
	assert.Nil(t, l.Since(5))
	assert.Len(t, l.Since(-1), 5)
	assert.Equal(t, 5, l.Len())
}

func TestSinkFailureDoesNotFailAppend(t *testing.T) {
	bad := &recordingSink{fail: errors.New("redis down")}
	good := &recordingSink{}
	l := New(bad, good)

	l.Append(context.Background(), model.NewUserRecord("t1", "hello"))
	assert.Equal(t, 1, l.Len())
	assert.Len(t, good.got, 1)
}

func TestConcurrentAppendsArePublishedInLogOrder(t *testing.T) {
	sink := &recordingSink{}
	l := New()
	l.AddSink(sink)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			l.Append(context.Background(), model.NewUserRecord("t", fmt.Sprint(i)))
		}(i)
	}
	wg.Wait()

	assert.Equal(t, l.Records(), sink.got)
}
