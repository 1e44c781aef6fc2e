package fix

import (
	"bufio"
	"fmt"
	"net"
	"time"

	"github.com/shopspring/decimal"
)

// Client is the initiator side of a FIX session. It is not safe for
// concurrent use; callers drive one request/response exchange at a
// time.
type Client struct {
	conn   net.Conn
	reader *bufio.Reader
	sender string
	target string
	seq    int
}

func Dial(addr, sender, target string) (*Client, error) {
	conn, err := net.DialTimeout("tcp", addr, 5*time.Second)
	if err != nil {
		return nil, fmt.Errorf("fix dial %s: %w", addr, err)
	}
	return &Client{
		conn:   conn,
		reader: bufio.NewReader(conn),
		sender: sender,
		target: target,
	}, nil
}

// Logon performs the session handshake.
func (c *Client) Logon(heartbeatSecs int) error {
	msg := NewMessage(MsgTypeLogon).SetInt(TagHeartBtInt, int64(heartbeatSecs))
	if err := c.Send(msg); err != nil {
		return err
	}
	reply, err := c.Recv()
	if err != nil {
		return err
	}
	if reply.Type != MsgTypeLogon {
		return fmt.Errorf("expected logon reply, got %s", reply.Type)
	}
	return nil
}

func (c *Client) Logout() error {
	if err := c.Send(NewMessage(MsgTypeLogout)); err != nil {
		return err
	}
	for {
		reply, err := c.Recv()
		if err != nil {
			return err
		}
		if reply.Type == MsgTypeLogout {
			return nil
		}
	}
}

func (c *Client) Send(msg *Message) error {
	c.seq++
	_, err := c.conn.Write(msg.Encode(c.sender, c.target, c.seq))
	return err
}

func (c *Client) Recv() (*Message, error) {
	frame, err := ReadFrame(c.reader)
	if err != nil {
		return nil, err
	}
	return Parse(frame)
}

// RecvApp returns the next application-level message, skipping
// heartbeats.
func (c *Client) RecvApp() (*Message, error) {
	for {
		msg, err := c.Recv()
		if err != nil {
			return nil, err
		}
		if msg.Type != MsgTypeHeartbeat {
			return msg, nil
		}
	}
}

func (c *Client) Close() error {
	return c.conn.Close()
}

// NewOrderSingle builds a 35=D message. Pass a zero price for market
// orders.
func NewOrderSingle(clOrdID, account, symbol, side, ordType string, quantity int64, price decimal.Decimal) *Message {
	msg := NewMessage(MsgTypeNewOrderSingle).
		Set(TagClOrdID, clOrdID).
		Set(TagAccount, account).
		Set(TagSymbol, symbol).
		Set(TagSide, side).
		Set(TagOrdType, ordType).
		SetInt(TagOrderQty, quantity)
	if !price.IsZero() {
		msg.Set(TagPrice, price.String())
	}
	return msg
}

// OrderCancelRequest builds a 35=F message referencing an earlier
// client order id.
func OrderCancelRequest(clOrdID, origClOrdID, symbol, side string) *Message {
	return NewMessage(MsgTypeOrderCancelRequest).
		Set(TagClOrdID, clOrdID).
		Set(TagOrigClOrdID, origClOrdID).
		Set(TagSymbol, symbol).
		Set(TagSide, side)
}
