package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/ittaigolde/spkkn-words/internal/usecase"
)

const defaultTimeout = 3 * time.Second

// PaymentGateway resolves payment references against the external payment
// gate over HTTP. Whatever the gate confirms is trusted as ground truth; we
// never talk to a payment processor from here.
type PaymentGateway struct {
	client  *http.Client
	baseURL string
}

func NewPaymentGateway(baseURL string) *PaymentGateway {
	return &PaymentGateway{
		client: &http.Client{
			Timeout: defaultTimeout,
		},
		baseURL: baseURL,
	}
}

type confirmationResponse struct {
	Reference string `json:"reference"`
	Word      string `json:"word"`
	Amount    string `json:"amount"`
	Status    string `json:"status"`
}

// Confirm fetches the confirmation for one payment reference.
func (g *PaymentGateway) Confirm(ctx context.Context, reference string) (usecase.PaymentConfirmation, error) {
	endpoint := fmt.Sprintf("%s/confirmations/%s", g.baseURL, url.PathEscape(reference))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return usecase.PaymentConfirmation{}, errors.Wrap(err, "failed to build confirmation request")
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return usecase.PaymentConfirmation{}, errors.Wrap(err, "payment gate unreachable")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return usecase.PaymentConfirmation{}, fmt.Errorf("payment gate returned status %d for reference %s", resp.StatusCode, reference)
	}

	var body confirmationResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return usecase.PaymentConfirmation{}, errors.Wrap(err, "failed to decode confirmation")
	}

	if body.Status != "succeeded" {
		return usecase.PaymentConfirmation{}, fmt.Errorf("payment %s not completed: status %s", reference, body.Status)
	}

	amount, err := decimal.NewFromString(body.Amount)
	if err != nil {
		return usecase.PaymentConfirmation{}, errors.Wrap(err, "invalid confirmation amount")
	}

	return usecase.PaymentConfirmation{
		Reference: body.Reference,
		Word:      body.Word,
		Amount:    amount,
	}, nil
}
