package whatsapp

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"runtime/debug"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/rivohq/rivo/internal/httpx"
	"github.com/rivohq/rivo/internal/observability/metrics"
	"github.com/rivohq/rivo/pkg/logging"
)

var webhookTracer = otel.Tracer("rivo.internal.channels.whatsapp")

const maxWebhookBodyBytes = 1 << 20

// Status values returned to Meta in the webhook acknowledgement body.
const (
	StatusIgnored   = "ignored"
	StatusProcessed = "processed"
	StatusDuplicate = "duplicate"
	StatusError     = "error"
)

const (
	missingParamsMessage = "WhatsApp webhook endpoint (GET) is alive, but parameters are missing."
	invalidTokenMessage  = "Invalid verify token."
	processingErrDetail  = "Server error while processing webhook."
)

// Inbound is one accepted message routed to a workspace.
type Inbound struct {
	WorkspaceID string
	Message     InboundMessage
	RawPayload  json.RawMessage
}

// InboundProcessor runs the auto-reply pipeline for an accepted message and
// returns the status to acknowledge with.
type InboundProcessor interface {
	Process(ctx context.Context, in Inbound) (string, error)
}

// WebhookConfig wires the webhook handler.
type WebhookConfig struct {
	VerifyToken string
	// AppSecret enables X-Hub-Signature-256 verification when set.
	AppSecret string
	Resolver  WorkspaceResolver
	Processor InboundProcessor
	Metrics   *metrics.WebhookMetrics
	Logger    *logging.Logger
}

// WebhookHandler handles WhatsApp webhook verification and inbound messages.
type WebhookHandler struct {
	verifyToken string
	appSecret   string
	resolver    WorkspaceResolver
	processor   InboundProcessor
	metrics     *metrics.WebhookMetrics
	logger      *logging.Logger
}

// NewWebhookHandler creates a new webhook handler.
func NewWebhookHandler(cfg WebhookConfig) *WebhookHandler {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}
	return &WebhookHandler{
		verifyToken: strings.TrimSpace(cfg.VerifyToken),
		appSecret:   strings.TrimSpace(cfg.AppSecret),
		resolver:    cfg.Resolver,
		processor:   cfg.Processor,
		metrics:     cfg.Metrics,
		logger:      logger,
	}
}

// HandleVerification answers Meta's GET subscription challenge.
func (h *WebhookHandler) HandleVerification(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	mode := firstNonEmpty(q.Get("hub.mode"), q.Get("mode"))
	token := firstNonEmpty(q.Get("hub.verify_token"), q.Get("verify_token"))
	challenge := firstNonEmpty(q.Get("hub.challenge"), q.Get("challenge"))

	if mode == "" || token == "" || challenge == "" {
		httpx.WriteJSON(w, http.StatusOK, map[string]string{"message": missingParamsMessage})
		return
	}

	if mode == "subscribe" && h.verifyToken != "" &&
		hmac.Equal([]byte(token), []byte(h.verifyToken)) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = io.WriteString(w, challenge)
		return
	}

	h.logger.Warn("whatsapp: webhook verification rejected", "mode", mode)
	httpx.WriteJSON(w, http.StatusForbidden, map[string]string{"error": invalidTokenMessage})
}

// HandleInbound processes a POSTed webhook. Meta always gets a 200; the
// body's status tells what happened.
func (h *WebhookHandler) HandleInbound(w http.ResponseWriter, r *http.Request) {
	ctx, span := webhookTracer.Start(r.Context(), "whatsapp.webhook.inbound")
	defer span.End()
	start := time.Now()

	status, err := h.handleRecovered(ctx, r)
	span.SetAttributes(attribute.String("whatsapp.status", status))

	h.metrics.ObserveInbound(status)
	h.metrics.ObserveWebhookLatency(status, time.Since(start).Seconds())

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "webhook processing failed")
		h.logger.Error("whatsapp: webhook processing failed", "error", err)
		httpx.WriteJSON(w, http.StatusOK, map[string]string{"status": StatusError, "detail": processingErrDetail})
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]string{"status": status})
}

// handleRecovered turns a panic below the handler into an error status so
// Meta still receives a 200 acknowledgement.
func (h *WebhookHandler) handleRecovered(ctx context.Context, r *http.Request) (status string, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			h.logger.Error("whatsapp: webhook panic", "panic", rec, "stack", string(debug.Stack()))
			status, err = StatusError, fmt.Errorf("whatsapp: panic: %v", rec)
		}
	}()
	return h.handle(ctx, r)
}

func (h *WebhookHandler) handle(ctx context.Context, r *http.Request) (string, error) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBodyBytes))
	if err != nil {
		h.logger.Warn("whatsapp: failed to read webhook body", "error", err)
		return StatusIgnored, nil
	}

	if h.appSecret != "" && !VerifySignature(h.appSecret, body, r.Header.Get("X-Hub-Signature-256")) {
		h.logger.Warn("whatsapp: invalid webhook signature")
		return StatusIgnored, nil
	}

	msg, ok := ParseInbound(body)
	if !ok {
		h.logger.Debug("whatsapp: webhook ignored, no text message")
		return StatusIgnored, nil
	}

	span := trace.SpanFromContext(ctx)
	span.SetAttributes(attribute.String("whatsapp.message_id", msg.MessageID))

	workspaceID, err := h.resolver.Resolve(ctx, msg.PhoneNumberID)
	if err != nil {
		return StatusError, err
	}
	span.SetAttributes(attribute.String("workspace.id", workspaceID))

	status, err := h.processor.Process(ctx, Inbound{
		WorkspaceID: workspaceID,
		Message:     msg,
		RawPayload:  json.RawMessage(body),
	})
	if err != nil {
		return StatusError, err
	}
	return status, nil
}

// VerifySignature verifies the X-Hub-Signature-256 header against body.
func VerifySignature(appSecret string, body []byte, signature string) bool {
	if appSecret == "" || signature == "" {
		return false
	}

	// Signature format: "sha256=<hex>"
	const prefix = "sha256="
	if !strings.HasPrefix(signature, prefix) || len(signature) == len(prefix) {
		return false
	}
	sigHex := signature[len(prefix):]

	mac := hmac.New(sha256.New, []byte(appSecret))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))

	return hmac.Equal([]byte(expected), []byte(strings.ToLower(sigHex)))
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
