package llm

import (
	"context"
	"errors"
)

var ErrEmptyResponse = errors.New("llm: empty response")

type Message struct {
	Role    string
	Content string
}

type Response struct {
	Content          string
	Model            string
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

type Client interface {
	Generate(ctx context.Context, messages []Message) (Response, error)
}

// Unavailable is a Client that always fails with Err. It stands in when no
// provider is configured so stored data can still be served.
type Unavailable struct {
	Err error
}

func (u Unavailable) Generate(context.Context, []Message) (Response, error) {
	return Response{}, u.Err
}
