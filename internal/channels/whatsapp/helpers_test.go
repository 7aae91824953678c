package whatsapp

import "fmt"

func textPayload(waID, name, phoneNumberID, messageID, body string) []byte {
	return []byte(fmt.Sprintf(`{
  "object": "whatsapp_business_account",
  "entry": [{
    "id": "WABA_ID",
    "changes": [{
      "field": "messages",
      "value": {
        "messaging_product": "whatsapp",
        "metadata": {"display_phone_number": "971400000000", "phone_number_id": %q},
        "contacts": [{"profile": {"name": %q}, "wa_id": %q}],
        "messages": [{"from": %q, "id": %q, "timestamp": "1760594400", "type": "text", "text": {"body": %q}}]
      }
    }]
  }]
}`, phoneNumberID, name, waID, waID, messageID, body))
}
