package discovery

import (
	"context"
	"errors"

	"github.com/xkilldash9x/dashwatch-cli/api/schemas"
)

// fakeSession is a minimal SessionContext for driving the agent.
type fakeSession struct {
	dom    string
	url    string
	domErr error
}

func (f *fakeSession) ID() string { return "fake-session" }

func (f *fakeSession) Navigate(ctx context.Context, url string) error { return nil }

func (f *fakeSession) Close(ctx context.Context) error { return nil }

func (f *fakeSession) CurrentURL(ctx context.Context) (string, error) {
	return f.url, nil
}

func (f *fakeSession) CaptureDOM(ctx context.Context) (string, error) {
	if f.domErr != nil {
		return "", f.domErr
	}
	return f.dom, nil
}

func (f *fakeSession) CaptureElement(ctx context.Context, selector, path string) error {
	return errors.New("not supported in discovery tests")
}

// stubLLM returns a canned response (or error) and records the request.
type stubLLM struct {
	response string
	err      error
	lastReq  schemas.GenerationRequest
	calls    int
}

func (s *stubLLM) GenerateResponse(ctx context.Context, req schemas.GenerationRequest) (string, error) {
	s.calls++
	s.lastReq = req
	if s.err != nil {
		return "", s.err
	}
	return s.response, nil
}
