package notify

import (
	"context"
	"sync"
)

type fakeEmail struct {
	mu   sync.Mutex
	reqs []EmailRequest
	err  error
}

func (f *fakeEmail) Name() string { return "fake" }

func (f *fakeEmail) Send(ctx context.Context, req EmailRequest) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reqs = append(f.reqs, req)
	return f.err
}

func (f *fakeEmail) sent() []EmailRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]EmailRequest(nil), f.reqs...)
}
