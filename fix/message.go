// Package fix implements the subset of FIX 4.4 the exchange speaks:
// session admin (Logon, Logout, Heartbeat), NewOrderSingle,
// OrderCancelRequest and the ExecutionReport / OrderCancelReject
// responses, as plain tag=value messages over TCP.
package fix

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"
)

const (
	soh = byte(0x01)

	BeginString = "FIX.4.4"
)

// Message types.
const (
	MsgTypeHeartbeat          = "0"
	MsgTypeTestRequest        = "1"
	MsgTypeLogout             = "5"
	MsgTypeExecutionReport    = "8"
	MsgTypeOrderCancelReject  = "9"
	MsgTypeLogon              = "A"
	MsgTypeNewOrderSingle     = "D"
	MsgTypeOrderCancelRequest = "F"
)

// Tags used by the exchange.
const (
	TagAccount          = 1
	TagAvgPx            = 6
	TagBeginString      = 8
	TagBodyLength       = 9
	TagCheckSum         = 10
	TagClOrdID          = 11
	TagCumQty           = 14
	TagExecID           = 17
	TagLastPx           = 31
	TagLastQty          = 32
	TagMsgSeqNum        = 34
	TagMsgType          = 35
	TagOrderID          = 37
	TagOrderQty         = 38
	TagOrdStatus        = 39
	TagOrdType          = 40
	TagOrigClOrdID      = 41
	TagPrice            = 44
	TagSenderCompID     = 49
	TagSendingTime      = 52
	TagSide             = 54
	TagSymbol           = 55
	TagTargetCompID     = 56
	TagText             = 58
	TagHeartBtInt       = 108
	TagTestReqID        = 112
	TagExecType         = 150
	TagLeavesQty        = 151
	TagCxlRejResponseTo = 434
)

const sendingTimeLayout = "20060102-15:04:05.000"

type field struct {
	tag   int
	value string
}

// Message is a single FIX message. Body fields keep insertion order;
// the session header and trailer are added at encode time.
type Message struct {
	Type   string
	fields []field
	index  map[int]string
}

func NewMessage(msgType string) *Message {
	return &Message{
		Type:  msgType,
		index: make(map[int]string),
	}
}

func (m *Message) Set(tag int, value string) *Message {
	m.fields = append(m.fields, field{tag: tag, value: value})
	m.index[tag] = value
	return m
}

func (m *Message) SetInt(tag int, value int64) *Message {
	return m.Set(tag, strconv.FormatInt(value, 10))
}

func (m *Message) Get(tag int) (string, bool) {
	v, ok := m.index[tag]
	return v, ok
}

func (m *Message) GetInt(tag int) (int64, error) {
	v, ok := m.index[tag]
	if !ok {
		return 0, fmt.Errorf("tag %d missing", tag)
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("tag %d: %w", tag, err)
	}
	return n, nil
}

// Encode frames the message with the standard header and trailer.
func (m *Message) Encode(sender, target string, seqNum int) []byte {
	var body bytes.Buffer
	writeField(&body, TagMsgType, m.Type)
	writeField(&body, TagSenderCompID, sender)
	writeField(&body, TagTargetCompID, target)
	writeField(&body, TagMsgSeqNum, strconv.Itoa(seqNum))
	writeField(&body, TagSendingTime, time.Now().UTC().Format(sendingTimeLayout))
	for _, f := range m.fields {
		writeField(&body, f.tag, f.value)
	}

	var msg bytes.Buffer
	writeField(&msg, TagBeginString, BeginString)
	writeField(&msg, TagBodyLength, strconv.Itoa(body.Len()))
	msg.Write(body.Bytes())
	writeField(&msg, TagCheckSum, fmt.Sprintf("%03d", checksum(msg.Bytes())))
	return msg.Bytes()
}

// Parse decodes a framed message and verifies its checksum.
func Parse(data []byte) (*Message, error) {
	trailerAt := bytes.LastIndex(data, []byte("\x0110="))
	if trailerAt < 0 {
		return nil, fmt.Errorf("missing checksum field")
	}
	wantSum := checksum(data[:trailerAt+1])

	msg := &Message{index: make(map[int]string)}
	for _, raw := range bytes.Split(data, []byte{soh}) {
		if len(raw) == 0 {
			continue
		}
		tagStr, value, found := strings.Cut(string(raw), "=")
		if !found {
			return nil, fmt.Errorf("malformed field %q", raw)
		}
		tag, err := strconv.Atoi(tagStr)
		if err != nil {
			return nil, fmt.Errorf("malformed tag %q", tagStr)
		}

		switch tag {
		case TagBeginString, TagBodyLength:
		case TagCheckSum:
			got, err := strconv.Atoi(value)
			if err != nil || got != wantSum {
				return nil, fmt.Errorf("checksum mismatch: message %s, computed %03d", value, wantSum)
			}
		case TagMsgType:
			msg.Type = value
			msg.index[tag] = value
		default:
			msg.fields = append(msg.fields, field{tag: tag, value: value})
			msg.index[tag] = value
		}
	}

	if msg.Type == "" {
		return nil, fmt.Errorf("missing MsgType")
	}
	return msg, nil
}

// ReadFrame reads one complete framed message from the stream using
// the BodyLength field to size the read.
func ReadFrame(r *bufio.Reader) ([]byte, error) {
	begin, err := r.ReadBytes(soh)
	if err != nil {
		return nil, err
	}
	if !bytes.HasPrefix(begin, []byte("8=")) {
		return nil, fmt.Errorf("expected BeginString, got %q", begin)
	}

	lengthField, err := r.ReadBytes(soh)
	if err != nil {
		return nil, err
	}
	if !bytes.HasPrefix(lengthField, []byte("9=")) {
		return nil, fmt.Errorf("expected BodyLength, got %q", lengthField)
	}
	bodyLen, err := strconv.Atoi(string(lengthField[2 : len(lengthField)-1]))
	if err != nil || bodyLen < 0 {
		return nil, fmt.Errorf("invalid BodyLength %q", lengthField)
	}

	// Body plus the fixed-width trailer "10=NNN<SOH>".
	rest := make([]byte, bodyLen+7)
	if _, err := io.ReadFull(r, rest); err != nil {
		return nil, err
	}

	frame := make([]byte, 0, len(begin)+len(lengthField)+len(rest))
	frame = append(frame, begin...)
	frame = append(frame, lengthField...)
	frame = append(frame, rest...)
	return frame, nil
}

func writeField(buf *bytes.Buffer, tag int, value string) {
	buf.WriteString(strconv.Itoa(tag))
	buf.WriteByte('=')
	buf.WriteString(value)
	buf.WriteByte(soh)
}

func checksum(data []byte) int {
	var sum int
	for _, b := range data {
		sum += int(b)
	}
	return sum % 256
}
