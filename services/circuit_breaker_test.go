package services

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"
)

func statusByName(r *CircuitBreakerRegistry, name string) (CircuitBreakerStatus, bool) {
	for _, s := range r.Status() {
		if s.Name == name {
			return s, true
		}
	}
	return CircuitBreakerStatus{}, false
}

func TestNewCircuitBreakerRegistry(t *testing.T) {
	config := CircuitBreakerConfig{
		MaxRequests: 3,
		Interval:    30 * time.Second,
		Timeout:     10 * time.Second,
		MinRequests: 2,
	}

	registry := NewCircuitBreakerRegistry(config)

	if registry == nil {
		t.Fatal("expected registry to be created")
	}
	if registry.breakers == nil {
		t.Error("expected breakers map to be initialized")
	}
	if registry.config != config {
		t.Error("expected config to be set")
	}
}

func TestCircuitBreakerRegistry_GetBreaker(t *testing.T) {
	registry := NewCircuitBreakerRegistry(DefaultCircuitBreakerConfig)

	breaker1 := registry.GetBreaker(BreakerYahoo)
	if breaker1 == nil {
		t.Fatal("expected breaker to be created")
	}

	if breaker2 := registry.GetBreaker(BreakerYahoo); breaker1 != breaker2 {
		t.Error("expected same breaker instance")
	}

	if breaker3 := registry.GetBreaker(BreakerTavily); breaker1 == breaker3 {
		t.Error("expected different breaker for different name")
	}
}

func TestCircuitBreakerRegistry_Execute(t *testing.T) {
	registry := NewCircuitBreakerRegistry(DefaultCircuitBreakerConfig)
	ctx := context.Background()

	result, err := registry.Execute(ctx, "svc", func() (any, error) {
		return "success", nil
	})
	if err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if result != "success" {
		t.Errorf("expected 'success', got %v", result)
	}

	expectedErr := errors.New("test error")
	_, err = registry.Execute(ctx, "svc", func() (any, error) {
		return nil, expectedErr
	})
	if !errors.Is(err, expectedErr) {
		t.Errorf("expected wrapped test error, got %v", err)
	}
}

func TestCircuitBreakerRegistry_Execute_ContextCanceled(t *testing.T) {
	registry := NewCircuitBreakerRegistry(DefaultCircuitBreakerConfig)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	_, err := registry.Execute(ctx, "svc", func() (any, error) {
		calls++
		return "should not reach", nil
	})

	if err == nil {
		t.Error("expected error due to cancelled context")
	}
	if calls != 0 {
		t.Errorf("fn called %d times, want 0", calls)
	}
}

func TestCircuitBreakerRegistry_Status(t *testing.T) {
	registry := NewCircuitBreakerRegistry(DefaultCircuitBreakerConfig)
	ctx := context.Background()

	_, _ = registry.Execute(ctx, "service-b", func() (any, error) {
		return nil, errors.New("fail")
	})
	_, _ = registry.Execute(ctx, "service-a", func() (any, error) {
		return "ok", nil
	})

	status := registry.Status()
	if len(status) != 2 {
		t.Fatalf("expected 2 breakers in status, got %d", len(status))
	}
	if status[0].Name != "service-a" || status[1].Name != "service-b" {
		t.Errorf("status should be sorted by name, got %s, %s", status[0].Name, status[1].Name)
	}
	if status[0].TotalSuccesses != 1 {
		t.Errorf("expected 1 success for service-a, got %d", status[0].TotalSuccesses)
	}
	if status[1].TotalFailures != 1 {
		t.Errorf("expected 1 failure for service-b, got %d", status[1].TotalFailures)
	}
}

func TestCircuitBreakerRegistry_OpenBreakerStillAttempts(t *testing.T) {
	config := CircuitBreakerConfig{
		MaxRequests: 1,
		Interval:    1 * time.Minute,
		Timeout:     1 * time.Minute,
		MinRequests: 5,
	}
	registry := NewCircuitBreakerRegistry(config)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, _ = registry.Execute(ctx, "failing-service", func() (any, error) {
			return nil, &APIError{Service: "failing-service", StatusCode: http.StatusBadGateway}
		})
	}

	status, _ := statusByName(registry, "failing-service")
	if status.State != "open" {
		t.Errorf("expected breaker to be open, got %s", status.State)
	}

	calls := 0
	result, err := registry.Execute(ctx, "failing-service", func() (any, error) {
		calls++
		return "recovered", nil
	})

	if err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if calls != 1 || result != "recovered" {
		t.Errorf("open breaker must still run the call once, got %d calls, result %v", calls, result)
	}
}

func TestCircuitBreakerRegistry_CallerErrorsDoNotTrip(t *testing.T) {
	tests := []struct {
		name   string
		status int
	}{
		{"unauthorized", http.StatusUnauthorized},
		{"forbidden", http.StatusForbidden},
		{"rate limited", http.StatusTooManyRequests},
		{"quota exhausted", http.StatusPaymentRequired},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			registry := NewCircuitBreakerRegistry(DefaultCircuitBreakerConfig)
			ctx := context.Background()

			for i := 0; i < 10; i++ {
				_, _ = registry.Execute(ctx, BreakerTavily, func() (any, error) {
					return nil, &APIError{Service: BreakerTavily, StatusCode: tt.status}
				})
			}

			status, _ := statusByName(registry, BreakerTavily)
			if status.State != "closed" {
				t.Errorf("expected breaker to stay closed, got %s", status.State)
			}
			if status.TotalFailures != 0 {
				t.Errorf("caller errors should not count as failures, got %d", status.TotalFailures)
			}
		})
	}
}

func TestCircuitBreakerRegistry_HalfOpen(t *testing.T) {
	config := CircuitBreakerConfig{
		MaxRequests: 1,
		Interval:    1 * time.Minute,
		Timeout:     100 * time.Millisecond,
		MinRequests: 5,
	}
	registry := NewCircuitBreakerRegistry(config)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, _ = registry.Execute(ctx, "half-open", func() (any, error) {
			return nil, errors.New("fail")
		})
	}

	time.Sleep(150 * time.Millisecond)

	var wg sync.WaitGroup
	var mu sync.Mutex
	calls := 0
	errChan := make(chan error, 3)
	for i := 0; i < 3; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := registry.Execute(ctx, "half-open", func() (any, error) {
				mu.Lock()
				calls++
				mu.Unlock()
				time.Sleep(50 * time.Millisecond)
				return "ok", nil
			})
			if err != nil {
				errChan <- err
			}
		}()
	}
	wg.Wait()
	close(errChan)

	for err := range errChan {
		t.Errorf("unexpected error in half-open state: %v", err)
	}
	if calls != 3 {
		t.Errorf("every call should run in half-open state, got %d", calls)
	}

	status, _ := statusByName(registry, "half-open")
	if status.State != "closed" {
		t.Errorf("expected a successful probe to close the breaker, got %s", status.State)
	}
}

func TestWithCircuitBreaker(t *testing.T) {
	SetGlobalRegistry(NewCircuitBreakerRegistry(DefaultCircuitBreakerConfig))
	ctx := context.Background()

	result, err := WithCircuitBreaker(ctx, "test", func() (string, error) {
		return "hello", nil
	})
	if err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if result != "hello" {
		t.Errorf("expected 'hello', got %s", result)
	}

	result, err = WithCircuitBreaker(ctx, "test", func() (string, error) {
		return "partial", errors.New("test error")
	})
	if err == nil {
		t.Error("expected error")
	}
	if result != "" {
		t.Errorf("expected zero value on error, got %s", result)
	}
}

func TestWithCircuitBreaker_TypedResults(t *testing.T) {
	SetGlobalRegistry(NewCircuitBreakerRegistry(DefaultCircuitBreakerConfig))

	type testResult struct {
		Value int
	}

	result, err := WithCircuitBreaker(context.Background(), "typed", func() (*testResult, error) {
		return &testResult{Value: 42}, nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Value != 42 {
		t.Errorf("unexpected result: %+v", result)
	}
}

func TestGetGlobalRegistry(t *testing.T) {
	SetGlobalRegistry(nil)

	registry := GetGlobalRegistry()
	if registry == nil {
		t.Fatal("expected global registry to be created")
	}
	if registry2 := GetGlobalRegistry(); registry != registry2 {
		t.Error("expected same global registry instance")
	}
}

func TestCircuitBreakerRegistry_Concurrent(t *testing.T) {
	registry := NewCircuitBreakerRegistry(DefaultCircuitBreakerConfig)
	ctx := context.Background()

	var wg sync.WaitGroup
	errChan := make(chan error, 10)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			if _, err := registry.Execute(ctx, "concurrent", func() (any, error) {
				return id, nil
			}); err != nil {
				errChan <- err
			}
		}(i)
	}
	wg.Wait()
	close(errChan)

	for err := range errChan {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestCategorizeAPIError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, "none"},
		{"deadline", context.DeadlineExceeded, "timeout"},
		{"canceled", context.Canceled, "canceled"},
		{"rate limit status", &APIError{StatusCode: 429}, "rate_limit"},
		{"unauthorized status", &APIError{StatusCode: 401}, "auth_error"},
		{"forbidden status", &APIError{StatusCode: 403}, "auth_error"},
		{"server status", &APIError{StatusCode: 503}, "server_error"},
		{"bad request status", &APIError{StatusCode: 400}, "client_error"},
		{"timeout message", errors.New("net/http: request canceled (Client.Timeout exceeded)"), "timeout"},
		{"connection", errors.New("dial tcp: connection refused"), "connection_error"},
		{"other", errors.New("boom"), "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := categorizeAPIError(tt.err); got != tt.want {
				t.Errorf("categorizeAPIError(%v) = %s, want %s", tt.err, got, tt.want)
			}
		})
	}
}

func TestAPIError_Message(t *testing.T) {
	err := newAPIError(BreakerTavily, 401, "  invalid api key  ")
	if err.Error() != "tavily: status 401: invalid api key" {
		t.Errorf("unexpected message: %s", err.Error())
	}
	if (&APIError{Service: "yahoo", StatusCode: 500}).Error() != "yahoo: status 500" {
		t.Error("empty message should omit the trailing body")
	}
}
