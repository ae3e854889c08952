package server

import (
	"encoding/json"
	"fmt"

	"connectrpc.com/connect"
	"github.com/fxamacker/cbor/v2"
)

// The wire messages in this package are plain structs, so the connect
// built-in codecs (which expect protobuf messages) cannot serialize
// them. Every handler and client registers these codecs instead. Both
// keys off the json struct tags.

// cborEncMode holds CBOR encoding options with canonical mode for
// deterministic encoding.
var cborEncMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("server: failed to create CBOR enc mode: %v", err))
	}
	cborEncMode = em
}

type jsonCodec struct{}

func (jsonCodec) Name() string { return "json" }

func (jsonCodec) Marshal(msg any) ([]byte, error) {
	return json.Marshal(msg)
}

func (jsonCodec) Unmarshal(data []byte, msg any) error {
	if err := json.Unmarshal(data, msg); err != nil {
		return fmt.Errorf("server: unmarshal json message: %w", err)
	}
	return nil
}

type cborCodec struct{}

func (cborCodec) Name() string { return "cbor" }

func (cborCodec) Marshal(msg any) ([]byte, error) {
	return cborEncMode.Marshal(msg)
}

func (cborCodec) Unmarshal(data []byte, msg any) error {
	if err := cbor.Unmarshal(data, msg); err != nil {
		return fmt.Errorf("server: unmarshal cbor message: %w", err)
	}
	return nil
}

// JSONCodec returns the codec used for application/json bodies, for
// callers building their own connect clients.
func JSONCodec() connect.Codec { return jsonCodec{} }

// CBORCodec returns the codec used for application/cbor bodies.
func CBORCodec() connect.Codec { return cborCodec{} }
