package services

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"VeggieMate/config/environment"
	"VeggieMate/utils"

	openai "github.com/sashabaranov/go-openai"
	"github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"
)

// Completer is the one interface every AI-calling stage depends on. Tests
// substitute a canned completer; production uses OpenAIService.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// OpenAIService resolves a prompt through a ranked list of models. A model
// failure moves on to the next model in the list; only a payload-too-large
// failure stops the walk early, since a prompt that does not fit one model
// will not fit a smaller one either.
type OpenAIService struct {
	client  *openai.Client
	models  []string
	timeout time.Duration
	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker[string]
	diag    *utils.Diagnostics
}

// NewOpenAIService initializes OpenAIService from the environment.
func NewOpenAIService(diag *utils.Diagnostics) *OpenAIService {
	settings := gobreaker.Settings{
		Name:    "openai",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.Requests >= 10 && counts.TotalFailures*2 >= counts.Requests
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Printf("⚠️ circuit breaker %s: %s -> %s", name, from, to)
		},
	}

	return &OpenAIService{
		client:  openai.NewClient(environment.GetOpenAIKey()),
		models:  environment.GetOpenAIModels(),
		timeout: environment.GetAICallTimeout(),
		limiter: rate.NewLimiter(rate.Every(500*time.Millisecond), 3),
		breaker: gobreaker.NewCircuitBreaker[string](settings),
		diag:    diag,
	}
}

// Complete sends the prompt and returns the raw text of the first choice.
func (s *OpenAIService) Complete(ctx context.Context, prompt string) (string, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return "", &utils.AIProviderError{Class: utils.AIErrTimeout, Err: err}
	}

	return s.breaker.Execute(func() (string, error) {
		return s.completeWithFallback(ctx, prompt)
	})
}

// CompleteJSON sends the prompt and decodes the JSON span of the response
// into v, tolerating prose and markdown fencing around it.
func (s *OpenAIService) CompleteJSON(ctx context.Context, prompt string, v interface{}) error {
	text, err := s.Complete(ctx, prompt)
	if err != nil {
		return err
	}
	if err := utils.DecodeLooseJSON(text, v); err != nil {
		return &utils.AIProviderError{Class: utils.AIErrMalformedResponse, Err: err}
	}
	return nil
}

func (s *OpenAIService) completeWithFallback(ctx context.Context, prompt string) (string, error) {
	var lastErr error

	for _, model := range s.models {
		callCtx, cancel := context.WithTimeout(ctx, s.timeout)
		resp, err := s.client.CreateChatCompletion(callCtx, openai.ChatCompletionRequest{
			Model: model,
			Messages: []openai.ChatCompletionMessage{
				{Role: openai.ChatMessageRoleUser, Content: prompt},
			},
			Temperature: 0.1,
		})
		cancel()

		if err == nil {
			if len(resp.Choices) == 0 {
				lastErr = &utils.AIProviderError{Class: utils.AIErrMalformedResponse, Model: model, Err: errors.New("no choices in response")}
				continue
			}
			return resp.Choices[0].Message.Content, nil
		}

		class := classifyOpenAIError(err)
		lastErr = &utils.AIProviderError{Class: class, Model: model, Err: err}
		s.diag.Record("openai", "model %s failed (%s)", model, class)

		// A prompt that overflows this model overflows the fallbacks too.
		if class == utils.AIErrPayloadTooLarge {
			return "", lastErr
		}
	}

	if lastErr == nil {
		lastErr = &utils.AIProviderError{Class: utils.AIErrUnknown, Err: errors.New("no models configured")}
	}
	return "", lastErr
}

func classifyOpenAIError(err error) utils.AIErrorClass {
	if errors.Is(err, context.DeadlineExceeded) {
		return utils.AIErrTimeout
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.HTTPStatusCode {
		case 401, 403:
			return utils.AIErrInvalidCredentials
		case 429:
			return utils.AIErrRateLimited
		case 400:
			msg := strings.ToLower(apiErr.Message)
			if strings.Contains(msg, "maximum context length") ||
				strings.Contains(msg, "context_length_exceeded") ||
				strings.Contains(msg, "too large") {
				return utils.AIErrPayloadTooLarge
			}
		}
	}
	return utils.AIErrUnknown
}
