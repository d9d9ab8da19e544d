package alerts

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/hibiken/asynq"

	"github.com/vaultworks/mythicalvault/internal/ledger"
)

// ensureClient returns a usable client instance
func ensureClient() *asynq.Client {
	if client == nil {
		Init()
	}
	return client
}

// EnqueueRedemptionFulfilled mails the redeem code to the recipient of a
// completed google_play request.
func EnqueueRedemptionFulfilled(req ledger.RedemptionRequest) error {
	subject := "Your MythicalVault reward is here!"
	body := fmt.Sprintf("Hi %s,\n\nYour redemption request has been processed.\n\nGoogle Play code: %s\n\nRedeem it at https://play.google.com/redeem\n\nThanks for using MythicalVault.", req.Username, req.FulfillmentCode)

	env := EmailEnvelope{
		To:      req.Recipient,
		Subject: subject,
		Body:    body,
	}
	payload := RedemptionFulfilledPayload{
		RequestID: req.ID,
		AccountID: req.AccountID,
		Username:  req.Username,
		Recipient: req.Recipient,
		Code:      req.FulfillmentCode,
		Envelope:  env,
		SentAt:    time.Now(),
	}
	b, _ := json.Marshal(payload)
	task := asynq.NewTask(TaskRedemptionFulfilled, b)
	_, err := ensureClient().Enqueue(task, asynq.Queue("emails"))
	return err
}

// EnqueueOperatorAlert flags a ledger inconsistency (a request whose debit
// never applied) for manual reconciliation.
func EnqueueOperatorAlert(requestID, message string) error {
	to := os.Getenv("OPERATOR_EMAIL")
	if to == "" {
		to = "ops@mythicalvault.local"
	}
	env := EmailEnvelope{To: to, Subject: "MythicalVault ledger reconciliation needed", Body: message}
	payload := OperatorAlertPayload{RequestID: requestID, Message: message, Envelope: env, SentAt: time.Now()}
	b, _ := json.Marshal(payload)
	task := asynq.NewTask(TaskOperatorAlert, b)
	_, err := ensureClient().Enqueue(task, asynq.Queue("alerts"))
	return err
}
