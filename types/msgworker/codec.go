package msgworker

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrMalformedMessage marks payloads that could not be decoded: unknown type
// byte, missing body, or a body that does not unmarshal.
var ErrMalformedMessage = errors.New("malformed message")

// Marshal encodes a message into a channel payload. It is total over all
// message values defined in this package: the bodies are plain data, so a
// marshal failure cannot happen.
func Marshal(msg WorkerMessage) []byte {
	body, err := json.Marshal(msg)
	if err != nil {
		panic(fmt.Sprintf("marshalling %T: %s", msg, err))
	}

	return append([]byte{byte(msg.WMsgType())}, body...)
}

// ParseRequest decodes a payload into one of the request messages.
func ParseRequest(payload []byte) (WorkerMessage, error) {
	typ, body, err := splitPayload(payload)
	if err != nil {
		return nil, err
	}

	var msg WorkerMessage
	switch typ {
	case IdentifyType:
		msg = &Identify{}
	case QueryBestSplitType:
		msg = &QueryBestSplit{}
	case AssignTaskType:
		msg = &AssignTask{}
	case AddFeatureType:
		msg = &AddFeature{}
	case FinishSetupType:
		msg = &FinishSetup{}
	case DropTaskType:
		msg = &DropTask{}
	default:
		return nil, fmt.Errorf("%w: unknown request type %#x", ErrMalformedMessage, byte(typ))
	}

	return msg, unmarshalBody(body, msg)
}

// ParseResponse decodes a payload into one of the response messages.
func ParseResponse(payload []byte) (WorkerMessage, error) {
	typ, body, err := splitPayload(payload)
	if err != nil {
		return nil, err
	}

	var msg WorkerMessage
	switch typ {
	case IdentifiedType:
		msg = &Identified{}
	case BestSplitResultType:
		msg = &BestSplitResult{}
	case TaskAckType:
		msg = &TaskAck{}
	case TaskRejectedType:
		msg = &TaskRejected{}
	default:
		return nil, fmt.Errorf("%w: unknown response type %#x", ErrMalformedMessage, byte(typ))
	}

	return msg, unmarshalBody(body, msg)
}

func splitPayload(payload []byte) (WorkerMessageType, []byte, error) {
	if len(payload) < 2 {
		return 0, nil, fmt.Errorf("%w: payload too short (%d bytes)", ErrMalformedMessage, len(payload))
	}

	return WorkerMessageType(payload[0]), payload[1:], nil
}

func unmarshalBody(body []byte, msg WorkerMessage) error {
	if err := json.Unmarshal(body, msg); err != nil {
		return fmt.Errorf("%w: body of %T: %s", ErrMalformedMessage, msg, err)
	}
	return nil
}
