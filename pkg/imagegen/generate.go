package imagegen

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"
	"golang.org/x/crypto/blake2b"
)

// GenerateRequest is the JSON body posted for one image. Seed -1 asks the
// service to pick a random seed and is sent as is.
type GenerateRequest struct {
	Prompt         string  `json:"prompt"`
	Width          int     `json:"width"`
	Height         int     `json:"height"`
	Steps          int     `json:"steps"`
	GuidanceScale  float64 `json:"guidance_scale"`
	Seed           int     `json:"seed"`
	NegativePrompt string  `json:"negative_prompt"`
}

// GenerateResponse is the service's answer. Image is an opaque URL or data
// URI; Settings echoes the effective parameters and may carry extra fields.
type GenerateResponse struct {
	Image    string         `json:"image"`
	Prompt   string         `json:"prompt"`
	Settings map[string]any `json:"settings"`
	Error    string         `json:"error,omitempty"`
}

type slotKey struct{}

// WithSlot tags ctx with the batch slot a call belongs to.
func WithSlot(ctx context.Context, slot int) context.Context {
	return context.WithValue(ctx, slotKey{}, slot)
}

// SlotFromContext returns the slot set by WithSlot.
func SlotFromContext(ctx context.Context) (int, bool) {
	slot, ok := ctx.Value(slotKey{}).(int)
	return slot, ok
}

// Fingerprint is a BLAKE2b-128 hex digest of the JSON payload, used to
// correlate identical requests in logs.
func Fingerprint(req GenerateRequest) string {
	data, err := json.Marshal(req)
	if err != nil {
		return ""
	}
	sum, err := blake2b.New(16, nil)
	if err != nil {
		return ""
	}
	sum.Write(data)
	return hex.EncodeToString(sum.Sum(nil))
}

// Generate performs one generation call. Every failure is a *ServiceError.
func (c *Client) Generate(ctx context.Context, req GenerateRequest) (*GenerateResponse, error) {
	log := c.logger
	if slot, ok := SlotFromContext(ctx); ok {
		log = log.With(zap.Int("slot", slot))
	}
	log.Debug("Submitting generation request", zap.String("prompt", req.Prompt), zap.Int("seed", req.Seed))

	status, body, err := c.doPostRequest(ctx, req)
	if err != nil {
		log.Warn("Generation request failed", zap.String("endpoint", c.endpoint), zap.Error(err))
		return nil, &ServiceError{StatusCode: status, Message: DefaultErrorMessage, Err: err}
	}

	var response GenerateResponse
	decodeErr := json.Unmarshal(body, &response)

	if status < http.StatusOK || status >= http.StatusMultipleChoices {
		message := DefaultErrorMessage
		if decodeErr == nil && response.Error != "" {
			message = response.Error
		}
		log.Warn("API request failed", zap.String("endpoint", c.endpoint), zap.Int("status", status), zap.String("body", string(body)))
		return nil, &ServiceError{StatusCode: status, Message: message, Err: errors.New(http.StatusText(status))}
	}

	if decodeErr != nil {
		log.Warn("Failed to decode generation response", zap.Error(decodeErr), zap.String("body", string(body)))
		return nil, &ServiceError{StatusCode: status, Message: DefaultErrorMessage, Err: decodeErr}
	}

	log.Debug("Generation request succeeded", zap.Int("status", status))
	return &response, nil
}
