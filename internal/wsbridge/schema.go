package wsbridge

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed schemas/client.json
var clientSchemaJSON []byte

const clientSchemaURL = "https://holdem.local/schemas/client.json"

var clientSchema = jsonschema.MustCompileString(clientSchemaURL, string(clientSchemaJSON))

// decodeClientMessage validates raw against the client message schema
// and decodes it.
func decodeClientMessage(raw []byte) (ClientMessage, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return ClientMessage{}, fmt.Errorf("invalid message: %w", err)
	}
	if err := clientSchema.Validate(doc); err != nil {
		return ClientMessage{}, fmt.Errorf("invalid message: %w", err)
	}

	var msg ClientMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		return ClientMessage{}, fmt.Errorf("invalid message: %w", err)
	}
	return msg, nil
}
