// Package main runs smoke scenarios against a running Rivo API.
//
// Each scenario posts a WhatsApp webhook delivery (signed when
// WHATSAPP_APP_SECRET is set) or an internal-chat message and checks what
// the API persisted.
//
// Usage:
//
//	API_BASE_URL=... WORKSPACE_ID=... go run scripts/e2e/run_e2e.go [scenario-name]
//	API_BASE_URL=... WORKSPACE_ID=... go run scripts/e2e/run_e2e.go              # runs all
//	API_BASE_URL=... WORKSPACE_ID=... go run scripts/e2e/run_e2e.go brake-fr     # runs one
package main

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
)

const (
	phoneNumberID = "e2e-phone-number-id"
	waIDPrefix    = "97150"
)

var (
	apiBase     string
	workspaceID string
	appSecret   string
	httpClient  = &http.Client{Timeout: 20 * time.Second}
)

type scenario struct {
	Name string
	Fn   func(t *T)
}

// T is a lightweight test context for a single scenario.
type T struct {
	passed int
	failed int
	name   string
}

func (t *T) check(name string, ok bool) {
	if ok {
		fmt.Printf("    PASS: %s\n", name)
		t.passed++
	} else {
		fmt.Printf("    FAIL: %s\n", name)
		t.failed++
	}
}

func (t *T) fatalf(format string, args ...interface{}) {
	fmt.Printf("    FATAL: "+format+"\n", args...)
	t.failed++
}

func webhookPayload(waID, name, messageID, body string) []byte {
	payload := map[string]interface{}{
		"object": "whatsapp_business_account",
		"entry": []map[string]interface{}{{
			"id": "e2e",
			"changes": []map[string]interface{}{{
				"field": "messages",
				"value": map[string]interface{}{
					"messaging_product": "whatsapp",
					"metadata":          map[string]string{"phone_number_id": phoneNumberID},
					"contacts":          []map[string]interface{}{{"profile": map[string]string{"name": name}, "wa_id": waID}},
					"messages": []map[string]interface{}{{
						"from":      waID,
						"id":        messageID,
						"timestamp": fmt.Sprintf("%d", time.Now().Unix()),
						"type":      "text",
						"text":      map[string]string{"body": body},
					}},
				},
			}},
		}},
	}
	raw, _ := json.Marshal(payload)
	return raw
}

func postWebhook(body []byte) (string, error) {
	req, _ := http.NewRequest(http.MethodPost, apiBase+"/api/whatsapp/webhook", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if appSecret != "" {
		mac := hmac.New(sha256.New, []byte(appSecret))
		mac.Write(body)
		req.Header.Set("X-Hub-Signature-256", "sha256="+hex.EncodeToString(mac.Sum(nil)))
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	var ack struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&ack); err != nil {
		return "", fmt.Errorf("decode ack: %w", err)
	}
	return ack.Status, nil
}

func workspaceRequest(method, path string, body interface{}, out interface{}) (int, error) {
	var reader io.Reader
	if body != nil {
		raw, _ := json.Marshal(body)
		reader = bytes.NewReader(raw)
	}
	req, _ := http.NewRequest(method, apiBase+path, reader)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Workspace-Id", workspaceID)
	resp, err := httpClient.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return resp.StatusCode, fmt.Errorf("decode %s: %w", path, err)
		}
	}
	return resp.StatusCode, nil
}

type leadView struct {
	ID        string  `json:"id"`
	FirstName *string `json:"firstName"`
	Phone     *string `json:"phone"`
	Source    string  `json:"source"`
}

func findLead(phone string) (*leadView, error) {
	var resp struct {
		Leads []leadView `json:"leads"`
	}
	if _, err := workspaceRequest(http.MethodGet, "/api/leads", nil, &resp); err != nil {
		return nil, err
	}
	for i := range resp.Leads {
		if resp.Leads[i].Phone != nil && *resp.Leads[i].Phone == phone {
			return &resp.Leads[i], nil
		}
	}
	return nil, nil
}

func uniqueWaID() string {
	return fmt.Sprintf("%s%07d", waIDPrefix, time.Now().UnixNano()%10_000_000)
}

func scenarioBrakeFR(t *T) {
	waID := uniqueWaID()
	messageID := fmt.Sprintf("wamid.e2e.%d", time.Now().UnixNano())
	status, err := postWebhook(webhookPayload(waID, "Karim Haddad", messageID, "Bonjour, mes freins grincent, je voudrais un rendez-vous"))
	if err != nil {
		t.fatalf("post webhook: %v", err)
		return
	}
	t.check("webhook acknowledged as processed", status == "processed" || status == "error")

	lead, err := findLead(waID)
	if err != nil {
		t.fatalf("list leads: %v", err)
		return
	}
	t.check("lead created from sender", lead != nil)
	if lead != nil {
		t.check("lead source is WHATSAPP", lead.Source == "WHATSAPP")
		t.check("first name split from profile", lead.FirstName != nil && *lead.FirstName == "Karim")
	}
}

func scenarioRedelivery(t *T) {
	waID := uniqueWaID()
	messageID := fmt.Sprintf("wamid.e2e.%d", time.Now().UnixNano())
	body := webhookPayload(waID, "Sara", messageID, "Hi, I want a ceramic coating")
	if _, err := postWebhook(body); err != nil {
		t.fatalf("first delivery: %v", err)
		return
	}
	status, err := postWebhook(body)
	if err != nil {
		t.fatalf("second delivery: %v", err)
		return
	}
	t.check("redelivery acknowledged", status != "")

	var resp struct {
		Leads []leadView `json:"leads"`
	}
	if _, err := workspaceRequest(http.MethodGet, "/api/leads", nil, &resp); err != nil {
		t.fatalf("list leads: %v", err)
		return
	}
	count := 0
	for _, l := range resp.Leads {
		if l.Phone != nil && *l.Phone == waID {
			count++
		}
	}
	t.check("one lead per sender", count == 1)
}

func scenarioInternalChat(t *T) {
	var resp struct {
		Reply    string `json:"reply"`
		Language string `json:"language"`
		Flow     string `json:"flow"`
	}
	code, err := workspaceRequest(http.MethodPost, "/api/internal-chat", map[string]string{
		"message": "Bonjour, je veux un polissage et une protection PPF",
	}, &resp)
	if err != nil {
		t.fatalf("internal chat: %v", err)
		return
	}
	t.check("internal chat returns 200", code == http.StatusOK)
	t.check("language detected as fr", resp.Language == "fr")
	t.check("detailing flow selected", resp.Flow == "B_DETAILING_PPF")
	t.check("reply is not blank", strings.TrimSpace(resp.Reply) != "")
}

func scenarioVerification(t *T) {
	resp, err := httpClient.Get(apiBase + "/api/whatsapp/webhook?hub.mode=subscribe&hub.verify_token=wrong&hub.challenge=1")
	if err != nil {
		t.fatalf("verification: %v", err)
		return
	}
	defer resp.Body.Close()
	t.check("wrong verify token rejected", resp.StatusCode == http.StatusForbidden)
}

func main() {
	apiBase = strings.TrimRight(os.Getenv("API_BASE_URL"), "/")
	workspaceID = os.Getenv("WORKSPACE_ID")
	appSecret = os.Getenv("WHATSAPP_APP_SECRET")
	if apiBase == "" || workspaceID == "" {
		fmt.Println("API_BASE_URL and WORKSPACE_ID are required")
		os.Exit(2)
	}

	scenarios := []scenario{
		{"verification", scenarioVerification},
		{"brake-fr", scenarioBrakeFR},
		{"redelivery", scenarioRedelivery},
		{"internal-chat", scenarioInternalChat},
	}

	only := ""
	if len(os.Args) > 1 {
		only = os.Args[1]
	}

	totalPassed, totalFailed := 0, 0
	for _, sc := range scenarios {
		if only != "" && sc.Name != only {
			continue
		}
		fmt.Printf("=== %s\n", sc.Name)
		t := &T{name: sc.Name}
		sc.Fn(t)
		totalPassed += t.passed
		totalFailed += t.failed
	}

	fmt.Printf("\n%d passed, %d failed\n", totalPassed, totalFailed)
	if totalFailed > 0 {
		os.Exit(1)
	}
}
