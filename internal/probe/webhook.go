package probe

import (
	"context"
	"fmt"
	"net/http"

	"github.com/khanhnv2901/apiprobe/internal/domain/scan"
	"github.com/khanhnv2901/apiprobe/internal/infrastructure/httpclient"
)

// Webhook posts forged, replayed, mis-signed and malformed events to the
// payment webhook. A hardened receiver acknowledges forgeries with 200 and
// never crashes.
type Webhook struct {
	Malformed []Body
	Options   Options
}

func (p *Webhook) Name() string            { return "Webhook security" }
func (p *Webhook) Category() scan.Category { return scan.CategoryWebhook }

const webhookPath = "/payments/webhook"

func (p *Webhook) post(ctx context.Context, req Requester, body Body, header map[string]string) httpclient.Response {
	return req.Do(ctx, httpclient.Request{
		Method: http.MethodPost,
		Path:   webhookPath,
		Header: header,
		JSON:   body.JSON,
		Raw:    body.Raw,
	})
}

func paymentEvent(id string) Body {
	return Body{JSON: map[string]any{"type": "payment", "data": map[string]any{"id": id}}}
}

func (p *Webhook) Run(ctx context.Context, req Requester) Report {
	rec := newRecorder(p.Category())

	// Acknowledging with 200 is the expected answer; no answer fails.
	resp := p.post(ctx, req, paymentEvent("99999999"), nil)
	rec.result(scan.ResultParams{
		TestName:     "Webhook forged payload handling",
		Passed:       resp.StatusCode == http.StatusOK,
		Details:      "Status: " + statusLabel(resp),
		RequestsSent: 1,
		StatusCodes:  statusCodesOf(resp),
	})

	// Double-processing is not observable from outside; the replay is sent
	// so it shows up in the target's logs.
	replay := paymentEvent("123456")
	first := p.post(ctx, req, replay, nil)
	second := p.post(ctx, req, replay, nil)
	rec.result(scan.ResultParams{
		TestName:     "Webhook replay protection",
		Passed:       true,
		Details:      "Replay sent - verify no double-processing in logs",
		RequestsSent: 2,
		StatusCodes:  append(statusCodesOf(first), statusCodesOf(second)...),
	})

	resp = p.post(ctx, req, paymentEvent("789"), map[string]string{
		"x-signature":  "ts=9999999,v1=0000000000000000000000000000000000000000",
		"x-request-id": "forged-request",
	})
	rec.result(scan.ResultParams{
		TestName:     "Webhook signature validation",
		Passed:       resp.StatusCode == http.StatusOK,
		Details:      "Invalid signature answered with status " + statusLabel(resp),
		RequestsSent: 1,
		StatusCodes:  statusCodesOf(resp),
	})

	crashes := 0
	unanswered := 0
	for _, body := range p.Malformed {
		resp := p.post(ctx, req, body, nil)
		if !resp.Reachable() {
			unanswered++
		} else if resp.StatusCode == http.StatusInternalServerError {
			crashes++
		}
	}
	rec.result(scan.ResultParams{
		TestName:     "Webhook malformed payload handling",
		Passed:       crashes == 0 && p.Options.acceptUnanswered(unanswered),
		Details:      withUnanswered(fmt.Sprintf("Crashes: %d/%d", crashes, len(p.Malformed)), unanswered),
		RequestsSent: len(p.Malformed),
	})
	return rec.done()
}
