package protocol

import (
	"encoding/json"
)

// JsonRpcVersion is the only value the wire "jsonrpc" field may carry.
const JsonRpcVersion = "2.0"

// wireMessage is the on-the-wire shape shared by all three envelope
// variants. The tag is the presence of fields, per §4.1: id+method is a
// Request, id+(result xor error) is a Response, method with no id is a
// Notification.
type wireMessage struct {
	JsonRPC string          `json:"jsonrpc"`
	ID      *ID             `json:"id,omitempty"`
	Method  string          `json:"method,omitempty"`
	Params  json.RawMessage `json:"params,omitempty"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *JsonRpcError   `json:"error,omitempty"`
}

// Kind classifies a decoded Message.
type Kind int

const (
	KindRequest Kind = iota
	KindResponse
	KindNotification
)

// Request is a JSON-RPC 2.0 request object: a method call that expects a
// response correlated by ID.
type Request struct {
	ID     ID
	Method string
	Params json.RawMessage
}

// Response is a JSON-RPC 2.0 response object. Exactly one of Result/Error
// is set.
type Response struct {
	ID     ID
	Result json.RawMessage
	Error  *JsonRpcError
}

// Notification is a JSON-RPC 2.0 notification: a method call with no ID,
// for which no response is ever produced.
type Notification struct {
	Method string
	Params json.RawMessage
}

// Message is the decoded tagged union. Exactly one of Req/Resp/Notif is
// non-nil, selected by Kind.
type Message struct {
	Kind  Kind
	Req   *Request
	Resp  *Response
	Notif *Notification
}

// EncodeRequest serializes a request envelope.
func EncodeRequest(method string, params any, id ID) ([]byte, error) {
	raw, err := marshalParams(params)
	if err != nil {
		return nil, err
	}
	return json.Marshal(wireMessage{JsonRPC: JsonRpcVersion, ID: &id, Method: method, Params: raw})
}

// EncodeNotification serializes a notification envelope (no id).
func EncodeNotification(method string, params any) ([]byte, error) {
	raw, err := marshalParams(params)
	if err != nil {
		return nil, err
	}
	return json.Marshal(wireMessage{JsonRPC: JsonRpcVersion, Method: method, Params: raw})
}

// EncodeResult serializes a success response envelope.
func EncodeResult(result any, id ID) ([]byte, error) {
	raw, err := marshalParams(result)
	if err != nil {
		return nil, err
	}
	return json.Marshal(wireMessage{JsonRPC: JsonRpcVersion, ID: &id, Result: raw})
}

// EncodeError serializes an error response envelope.
func EncodeError(jerr *JsonRpcError, id ID) ([]byte, error) {
	return json.Marshal(wireMessage{JsonRPC: JsonRpcVersion, ID: &id, Error: jerr})
}

func marshalParams(v any) (json.RawMessage, error) {
	if v == nil {
		return nil, nil
	}
	if raw, ok := v.(json.RawMessage); ok {
		return raw, nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return b, nil
}

// Decode parses a raw JSON-RPC envelope and classifies it into the
// three-variant union. Malformed JSON yields ParseError (-32700); a
// well-formed object that doesn't match any of the three shapes, or whose
// jsonrpc field isn't exactly "2.0", yields InvalidRequest (-32600).
func Decode(data []byte) (*Message, error) {
	var w wireMessage
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, NewParseError(err)
	}
	if w.JsonRPC != JsonRpcVersion {
		return nil, NewInvalidRequest("jsonrpc must be \"2.0\", got " + w.JsonRPC)
	}

	switch {
	case w.ID != nil && w.Method != "":
		return &Message{Kind: KindRequest, Req: &Request{ID: *w.ID, Method: w.Method, Params: w.Params}}, nil
	case w.ID != nil && (w.Result != nil || w.Error != nil):
		if w.Result != nil && w.Error != nil {
			return nil, NewInvalidRequest("response must not carry both result and error")
		}
		return &Message{Kind: KindResponse, Resp: &Response{ID: *w.ID, Result: w.Result, Error: w.Error}}, nil
	case w.ID == nil && w.Method != "":
		return &Message{Kind: KindNotification, Notif: &Notification{Method: w.Method, Params: w.Params}}, nil
	default:
		return nil, NewInvalidRequest("message matches neither request, response, nor notification shape")
	}
}

// Encode re-serializes a decoded Message back to its wire form — used by
// the round-trip invariant in §8 and by transports that need to re-frame a
// message they classified earlier.
func Encode(m *Message) ([]byte, error) {
	switch m.Kind {
	case KindRequest:
		return json.Marshal(wireMessage{JsonRPC: JsonRpcVersion, ID: &m.Req.ID, Method: m.Req.Method, Params: m.Req.Params})
	case KindResponse:
		return json.Marshal(wireMessage{JsonRPC: JsonRpcVersion, ID: &m.Resp.ID, Result: m.Resp.Result, Error: m.Resp.Error})
	case KindNotification:
		return json.Marshal(wireMessage{JsonRPC: JsonRpcVersion, Method: m.Notif.Method, Params: m.Notif.Params})
	default:
		return nil, NewInternalError(nil)
	}
}
