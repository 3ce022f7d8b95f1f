package events

import (
	"github.com/gagliardetto/solana-go"

	"github.com/drift-labs/protocol-v2-sub007/lib/drift"
)

type EventType string

const (
	// Data is *drift.OrderRecord
	EventTypeOrderRecord EventType = "order_record"
	// Data is *drift.OrderActionRecord
	EventTypeOrderActionRecord EventType = "order_action_record"
)

type Event struct {
	Data      interface{}
	EventType EventType
}

type WrappedEvent struct {
	Event
	TxSig solana.Signature
	Slot  uint64
}

func NewOrderRecordEvent(record *drift.OrderRecord, txSig solana.Signature, slot uint64) *WrappedEvent {
	return &WrappedEvent{
		Event: Event{Data: record, EventType: EventTypeOrderRecord},
		TxSig: txSig,
		Slot:  slot,
	}
}

func NewOrderActionRecordEvent(record *drift.OrderActionRecord, txSig solana.Signature, slot uint64) *WrappedEvent {
	return &WrappedEvent{
		Event: Event{Data: record, EventType: EventTypeOrderActionRecord},
		TxSig: txSig,
		Slot:  slot,
	}
}
