package mpesa

import (
	"context"
	"fmt"
	"math/rand"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/kennahq/kenna-pos-backend/pkg/config"
	"github.com/kennahq/kenna-pos-backend/pkg/enums"
	"github.com/kennahq/kenna-pos-backend/pkg/logger"
)

// Simulator stands in for the M-Pesa Daraja API. It reproduces the observable
// protocol — initiate returns a transaction id after network latency, the
// customer confirms a PIN prompt, and status polling resolves to a terminal
// state — without any real network traffic. A production deployment swaps in
// a real client behind the same three calls.
type Simulator struct {
	cfg  config.GatewayConfig
	logg *logger.Logger

	mu        sync.Mutex
	randFloat func() float64
	randInt   func(n int) int
	sleep     func(ctx context.Context, d time.Duration) error
}

var phonePattern = regexp.MustCompile(`^\+?[0-9]{9,15}$`)

const txIDAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// NewSimulator builds a gateway simulator with its own seeded random source.
func NewSimulator(cfg config.GatewayConfig, logg *logger.Logger) *Simulator {
	src := rand.New(rand.NewSource(time.Now().UnixNano()))
	return &Simulator{
		cfg:       cfg,
		logg:      logg,
		randFloat: src.Float64,
		randInt:   src.Intn,
		sleep:     sleepContext,
	}
}

// Initiate sends a payment request to the payer's phone and returns the
// gateway transaction id.
func (s *Simulator) Initiate(ctx context.Context, phoneNumber string, amountCents int) (string, error) {
	if !phonePattern.MatchString(strings.TrimSpace(phoneNumber)) {
		return "", fmt.Errorf("malformed phone number %q", phoneNumber)
	}
	if amountCents <= 0 {
		return "", fmt.Errorf("amount must be positive, got %d", amountCents)
	}

	if err := s.sleep(ctx, s.cfg.InitiateLatency); err != nil {
		return "", err
	}

	txID := s.newTransactionID()
	if s.logg != nil {
		ctx = s.logg.WithFields(ctx, map[string]any{
			"transaction_id": txID,
			"amount_cents":   amountCents,
		})
		s.logg.Info(ctx, "mpesa.payment_request_sent")
	}
	return txID, nil
}

// ConfirmPrompt waits for the customer to respond to the PIN prompt on their
// phone. False means the entry timed out or was cancelled.
func (s *Simulator) ConfirmPrompt(ctx context.Context) (bool, error) {
	// Prompt latency plus up to the same again in jitter, matching how long
	// a human takes to find their phone and key a PIN.
	jitter := time.Duration(s.float() * float64(s.cfg.PromptLatency))
	if err := s.sleep(ctx, s.cfg.PromptLatency+jitter); err != nil {
		return false, err
	}
	return s.float() < 0.9, nil
}

// CheckStatus polls the gateway for the transaction's current state.
func (s *Simulator) CheckStatus(ctx context.Context, transactionID string) (enums.GatewayStatus, error) {
	if transactionID == "" {
		return "", fmt.Errorf("transaction id is required")
	}
	if err := s.sleep(ctx, s.cfg.StatusLatency); err != nil {
		return "", err
	}

	roll := s.float()
	switch {
	case roll < 0.7:
		return enums.GatewayStatusCompleted, nil
	case roll < 0.9:
		return enums.GatewayStatusPending, nil
	default:
		return enums.GatewayStatusFailed, nil
	}
}

func (s *Simulator) newTransactionID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var b strings.Builder
	b.WriteString("MP")
	for i := 0; i < 9; i++ {
		b.WriteByte(txIDAlphabet[s.randInt(len(txIDAlphabet))])
	}
	return b.String()
}

func (s *Simulator) float() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.randFloat()
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
