package notifications

import (
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Provider sends outbound attendee notifications. Callers treat sends as
// fire-and-forget: a failed send is logged, never escalated.
type Provider interface {
	SendMealNotification(phone, mealType string, remaining int) error
}

// Fast2SMSProvider sends SMS via Fast2SMS.
type Fast2SMSProvider struct {
	APIKey string
	client *http.Client
}

func NewFast2SMSProvider(apiKey string) *Fast2SMSProvider {
	return &Fast2SMSProvider{
		APIKey: apiKey,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

// SendMealNotification sends the meal-consumed message to the attendee.
func (p *Fast2SMSProvider) SendMealNotification(phone, mealType string, remaining int) error {
	message := fmt.Sprintf("You used 1 %s meal. %d meals remaining.", mealType, remaining)

	data := url.Values{}
	data.Set("authorization", p.APIKey)
	data.Set("message", message)
	data.Set("language", "english")
	data.Set("route", "q")
	data.Set("numbers", phone)

	req, err := http.NewRequest("POST", "https://www.fast2sms.com/dev/bulkV2", strings.NewReader(data.Encode()))
	if err != nil {
		return fmt.Errorf("failed to create SMS request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send SMS: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("SMS API error (status %d): %s", resp.StatusCode, string(body))
	}
	return nil
}

// MockProvider prints the message instead of sending it, for development
// setups without an SMS account.
type MockProvider struct{}

func NewMockProvider() *MockProvider {
	return &MockProvider{}
}

func (p *MockProvider) SendMealNotification(phone, mealType string, remaining int) error {
	fmt.Printf("[SMS to %s] You used 1 %s meal. %d meals remaining.\n", phone, mealType, remaining)
	return nil
}
