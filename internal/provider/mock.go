package provider

import (
	"context"
	"fmt"
	"sync"
)

// Reply is one scripted provider answer.
type Reply struct {
	Text string
	// Identity returns the input text unchanged.
	Identity bool
	Err      error
}

// Call records a Translate invocation.
type Call struct {
	Text string
	Src  string
	Dest string
}

// MockClient replays scripted replies. When the script runs out the last reply repeats.
// A MockClient is shared by every connection its Factory opens.
type MockClient struct {
	mu sync.Mutex

	Replies []Reply
	// DetectLang is returned by Detect unless DetectErr is set.
	DetectLang string
	DetectErr  error

	Calls       []Call
	DetectCalls int
	Opens       int
	Closes      int
}

// Factory returns a Factory that hands out m.
func (m *MockClient) Factory() Factory {
	return func(ctx context.Context) (Client, error) {
		m.mu.Lock()
		m.Opens++
		m.mu.Unlock()
		return &mockConn{m: m}, nil
	}
}

func (m *MockClient) next() Reply {
	if len(m.Replies) == 0 {
		return Reply{Identity: true}
	}
	idx := len(m.Calls) - 1
	if idx >= len(m.Replies) {
		idx = len(m.Replies) - 1
	}
	return m.Replies[idx]
}

// TranslateCalls returns the number of Translate invocations.
func (m *MockClient) TranslateCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Calls)
}

type mockConn struct {
	m      *MockClient
	closed bool
}

func (c *mockConn) Translate(ctx context.Context, text, src, dest string) (string, error) {
	if c.closed {
		return "", fmt.Errorf("mock connection used after close")
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	c.m.mu.Lock()
	defer c.m.mu.Unlock()
	c.m.Calls = append(c.m.Calls, Call{Text: text, Src: src, Dest: dest})
	r := c.m.next()
	if r.Err != nil {
		return "", r.Err
	}
	if r.Identity {
		return text, nil
	}
	return r.Text, nil
}

func (c *mockConn) Detect(ctx context.Context, text string) (string, error) {
	c.m.mu.Lock()
	defer c.m.mu.Unlock()
	c.m.DetectCalls++
	if c.m.DetectErr != nil {
		return "", c.m.DetectErr
	}
	return c.m.DetectLang, nil
}

func (c *mockConn) Close() error {
	c.m.mu.Lock()
	defer c.m.mu.Unlock()
	if !c.closed {
		c.closed = true
		c.m.Closes++
	}
	return nil
}
