// Package enginetest provides a scripted chat model for tests.
package enginetest

import (
	"context"
	"errors"
	"sync"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
)

// Reply is one scripted Generate result.
type Reply struct {
	Content string
	Err     error
}

// ChatModel implements einomodel.BaseChatModel. Replies are returned in
// order; the last one repeats once the script is exhausted.
type ChatModel struct {
	mu      sync.Mutex
	replies []Reply
	calls   [][]*schema.Message
	temps   []float32
	// Block, when set, is received from before each Generate returns.
	Block chan struct{}
}

var _ einomodel.BaseChatModel = (*ChatModel)(nil)

func New(replies ...Reply) *ChatModel {
	return &ChatModel{replies: replies}
}

func (m *ChatModel) Generate(ctx context.Context, input []*schema.Message, opts ...einomodel.Option) (*schema.Message, error) {
	if m.Block != nil {
		select {
		case <-m.Block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	o := einomodel.GetCommonOptions(nil, opts...)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, input)
	if o.Temperature != nil {
		m.temps = append(m.temps, *o.Temperature)
	}
	if len(m.replies) == 0 {
		return schema.AssistantMessage("", nil), nil
	}
	r := m.replies[0]
	if len(m.replies) > 1 {
		m.replies = m.replies[1:]
	}
	if r.Err != nil {
		return nil, r.Err
	}
	return schema.AssistantMessage(r.Content, nil), nil
}

func (m *ChatModel) Stream(ctx context.Context, input []*schema.Message, opts ...einomodel.Option) (*schema.StreamReader[*schema.Message], error) {
	return nil, errors.New("enginetest: streaming not supported")
}

// Calls returns the message lists passed to Generate.
func (m *ChatModel) Calls() [][]*schema.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([][]*schema.Message(nil), m.calls...)
}

// Temperatures returns the temperature option of each call that set one.
func (m *ChatModel) Temperatures() []float32 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]float32(nil), m.temps...)
}
