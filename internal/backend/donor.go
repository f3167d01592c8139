package backend

import (
	"context"
	"net/http"
	"strconv"

	"erp/portal/internal/model"
)

func (c *Client) PaymentHistory(ctx context.Context, donorID model.ID) ([]model.Payment, error) {
	var payments []model.Payment
	err := c.do(ctx, "payment_history", http.MethodGet, "/donor/payment-history/"+escape(donorID.String()), nil, &payments)
	return payments, err
}

func (c *Client) SubmitPaymentProof(ctx context.Context, proof model.PaymentProof, file Upload) (model.Payment, error) {
	file.Field = "proof"
	fields := map[string]string{
		"donor_id": proof.DonorID.String(),
		"amount":   strconv.FormatFloat(proof.Amount, 'f', 2, 64),
	}
	if proof.Purpose != "" {
		fields["purpose"] = proof.Purpose
	}
	var payment model.Payment
	err := c.doMultipart(ctx, "submit_payment_proof", "/donor/payment-proof", Form{
		Fields: fields,
		Files:  []Upload{file},
	}, &payment)
	return payment, err
}
