package api

import (
	"context"
	"sync"

	"github.com/diogo/tacticscoach/internal/models"
)

// ClientInterface is what the commands and the conversation controller need from Client
type ClientInterface interface {
	Ask(ctx context.Context, prompt string, opts *AskOptions) (models.Snapshot, error)
	Ping(ctx context.Context) (string, error)
	BaseURL() string
}

// Ensure Client implements ClientInterface
var _ ClientInterface = (*Client)(nil)

// MockClient replays scripted snapshots, for tests of callers
type MockClient struct {
	// Snapshots are delivered in order through OnSnapshot.
	Snapshots []models.Snapshot
	// AskErr is returned after all snapshots have been delivered.
	AskErr error
	// Block makes Ask wait for ctx to be cancelled after delivering Snapshots.
	Block bool

	PingMessage string
	PingErr     error
	URL         string

	mu      sync.Mutex
	prompts []string
}

// Ensure MockClient implements ClientInterface
var _ ClientInterface = (*MockClient)(nil)

func (m *MockClient) Ask(ctx context.Context, prompt string, opts *AskOptions) (models.Snapshot, error) {
	m.mu.Lock()
	m.prompts = append(m.prompts, prompt)
	m.mu.Unlock()

	if opts == nil {
		opts = &AskOptions{}
	}

	var last models.Snapshot
	for i, snap := range m.Snapshots {
		if err := ctx.Err(); err != nil {
			return last, err
		}
		if i == 0 && opts.OnFirstByte != nil {
			opts.OnFirstByte()
		}
		if opts.OnSnapshot != nil {
			opts.OnSnapshot(snap)
		}
		last = snap
	}

	if m.Block {
		<-ctx.Done()
		return last, ctx.Err()
	}

	return last, m.AskErr
}

func (m *MockClient) Ping(ctx context.Context) (string, error) {
	return m.PingMessage, m.PingErr
}

func (m *MockClient) BaseURL() string {
	if m.URL == "" {
		return models.DefaultBaseURL
	}
	return m.URL
}

// Prompts returns every prompt passed to Ask
func (m *MockClient) Prompts() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.prompts...)
}
