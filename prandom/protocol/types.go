package protocol

type MessageType uint8

const (
	MessageTypeRead  MessageType = 1
	MessageTypeData  MessageType = 2
	MessageTypeError MessageType = 3
)

func (t MessageType) String() string {
	switch t {
	case MessageTypeRead:
		return "READ"
	case MessageTypeData:
		return "DATA"
	case MessageTypeError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}
