package core

import (
	"fmt"
	"math"
	"time"

	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/varint"
)

// Hand-written MUS serializers for the domain types persisted in Badger.
// Layout is append-only: new fields go at the end so older rows still parse.

// checkLength rejects a decoded collection length that a corrupted row
// could not legitimately carry. Every element occupies at least one byte,
// so a valid length never exceeds the bytes that remain.
func checkLength(length, remaining int) error {
	if length < 0 || length > remaining {
		return fmt.Errorf("%w: %d elements in %d bytes", ErrCorruptLength, length, remaining)
	}
	return nil
}

// IDMUS serializes IDs.
var IDMUS = idMUS{}

type idMUS struct{}

func (idMUS) Marshal(v ID, bs []byte) int {
	return varint.Uint64.Marshal(uint64(v), bs)
}

func (idMUS) Unmarshal(bs []byte) (ID, int, error) {
	v, n, err := varint.Uint64.Unmarshal(bs)
	return ID(v), n, err
}

func (idMUS) Size(v ID) int {
	return varint.Uint64.Size(uint64(v))
}

func (idMUS) Skip(bs []byte) (int, error) {
	return varint.Uint64.Skip(bs)
}

// timeMUS stores times as microseconds since the Unix epoch.
type timeMUS struct{}

func (timeMUS) Marshal(v time.Time, bs []byte) int {
	return varint.Int64.Marshal(v.UnixMicro(), bs)
}

func (timeMUS) Unmarshal(bs []byte) (time.Time, int, error) {
	micros, n, err := varint.Int64.Unmarshal(bs)
	if err != nil {
		return time.Time{}, n, err
	}
	return time.UnixMicro(micros).UTC(), n, nil
}

func (timeMUS) Size(v time.Time) int {
	return varint.Int64.Size(v.UnixMicro())
}

// vectorMUS stores embedding vectors as a length prefix followed by the
// IEEE 754 bits of each component.
type vectorMUS struct{}

func (vectorMUS) Marshal(v []float32, bs []byte) int {
	n := varint.Int.Marshal(len(v), bs)
	for _, f := range v {
		n += varint.Uint32.Marshal(math.Float32bits(f), bs[n:])
	}
	return n
}

func (vectorMUS) Unmarshal(bs []byte) ([]float32, int, error) {
	length, n, err := varint.Int.Unmarshal(bs)
	if err != nil {
		return nil, n, err
	}
	if err := checkLength(length, len(bs)-n); err != nil {
		return nil, n, err
	}
	if length == 0 {
		return nil, n, nil
	}
	v := make([]float32, length)
	for i := range v {
		bits, m, err := varint.Uint32.Unmarshal(bs[n:])
		n += m
		if err != nil {
			return nil, n, err
		}
		v[i] = math.Float32frombits(bits)
	}
	return v, n, nil
}

func (vectorMUS) Size(v []float32) int {
	size := varint.Int.Size(len(v))
	for _, f := range v {
		size += varint.Uint32.Size(math.Float32bits(f))
	}
	return size
}

// KnowledgeItemMUS serializes KnowledgeItems.
var KnowledgeItemMUS = knowledgeItemMUS{}

type knowledgeItemMUS struct{}

func (knowledgeItemMUS) Marshal(v KnowledgeItem, bs []byte) int {
	n := IDMUS.Marshal(v.Id, bs)
	n += varint.Int.Marshal(int(v.SourceType), bs[n:])
	n += ord.String.Marshal(v.Title, bs[n:])
	n += ord.String.Marshal(v.Body, bs[n:])
	n += ord.String.Marshal(v.Category, bs[n:])
	n += vectorMUS{}.Marshal(v.Vector, bs[n:])
	n += ord.Bool.Marshal(v.Active, bs[n:])
	n += timeMUS{}.Marshal(v.CreatedAt, bs[n:])
	n += timeMUS{}.Marshal(v.UpdatedAt, bs[n:])
	return n
}

func (knowledgeItemMUS) Unmarshal(bs []byte) (v KnowledgeItem, n int, err error) {
	var m int
	if v.Id, n, err = IDMUS.Unmarshal(bs); err != nil {
		return
	}
	var st int
	if st, m, err = varint.Int.Unmarshal(bs[n:]); err != nil {
		return v, n + m, err
	}
	v.SourceType = SourceType(st)
	n += m
	if v.Title, m, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return v, n + m, err
	}
	n += m
	if v.Body, m, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return v, n + m, err
	}
	n += m
	if v.Category, m, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return v, n + m, err
	}
	n += m
	if v.Vector, m, err = (vectorMUS{}).Unmarshal(bs[n:]); err != nil {
		return v, n + m, err
	}
	n += m
	if v.Active, m, err = ord.Bool.Unmarshal(bs[n:]); err != nil {
		return v, n + m, err
	}
	n += m
	if v.CreatedAt, m, err = (timeMUS{}).Unmarshal(bs[n:]); err != nil {
		return v, n + m, err
	}
	n += m
	if v.UpdatedAt, m, err = (timeMUS{}).Unmarshal(bs[n:]); err != nil {
		return v, n + m, err
	}
	n += m
	return v, n, nil
}

func (knowledgeItemMUS) Size(v KnowledgeItem) int {
	size := IDMUS.Size(v.Id)
	size += varint.Int.Size(int(v.SourceType))
	size += ord.String.Size(v.Title)
	size += ord.String.Size(v.Body)
	size += ord.String.Size(v.Category)
	size += vectorMUS{}.Size(v.Vector)
	size += ord.Bool.Size(v.Active)
	size += timeMUS{}.Size(v.CreatedAt)
	size += timeMUS{}.Size(v.UpdatedAt)
	return size
}

// turnMUS serializes one conversation turn.
type turnMUS struct{}

func (turnMUS) Marshal(v Turn, bs []byte) int {
	n := varint.Int.Marshal(int(v.Role), bs)
	n += ord.String.Marshal(v.Text, bs[n:])
	return n
}

func (turnMUS) Unmarshal(bs []byte) (v Turn, n int, err error) {
	var role, m int
	if role, n, err = varint.Int.Unmarshal(bs); err != nil {
		return
	}
	v.Role = Role(role)
	if v.Text, m, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return v, n + m, err
	}
	return v, n + m, nil
}

func (turnMUS) Size(v Turn) int {
	return varint.Int.Size(int(v.Role)) + ord.String.Size(v.Text)
}

// kindsMUS serializes a list of action kinds.
type kindsMUS struct{}

func (kindsMUS) Marshal(v []ActionKind, bs []byte) int {
	n := varint.Int.Marshal(len(v), bs)
	for _, k := range v {
		n += varint.Int.Marshal(int(k), bs[n:])
	}
	return n
}

func (kindsMUS) Unmarshal(bs []byte) ([]ActionKind, int, error) {
	length, n, err := varint.Int.Unmarshal(bs)
	if err != nil {
		return nil, n, err
	}
	if err := checkLength(length, len(bs)-n); err != nil {
		return nil, n, err
	}
	if length == 0 {
		return nil, n, nil
	}
	v := make([]ActionKind, length)
	for i := range v {
		k, m, err := varint.Int.Unmarshal(bs[n:])
		n += m
		if err != nil {
			return nil, n, err
		}
		v[i] = ActionKind(k)
	}
	return v, n, nil
}

func (kindsMUS) Size(v []ActionKind) int {
	size := varint.Int.Size(len(v))
	for _, k := range v {
		size += varint.Int.Size(int(k))
	}
	return size
}

// SessionMUS serializes Sessions.
var SessionMUS = sessionMUS{}

type sessionMUS struct{}

func (sessionMUS) Marshal(v Session, bs []byte) int {
	n := ord.String.Marshal(v.Id, bs)
	n += varint.Int.Marshal(v.TurnCount, bs[n:])
	n += varint.Int.Marshal(len(v.History), bs[n:])
	for _, turn := range v.History {
		n += turnMUS{}.Marshal(turn, bs[n:])
	}
	n += kindsMUS{}.Marshal(v.LastActions, bs[n:])
	n += kindsMUS{}.Marshal(v.OfferedKinds, bs[n:])
	n += varint.Int.Marshal(int(v.Stage), bs[n:])
	n += ord.Bool.Marshal(v.CelebrationSent, bs[n:])
	n += timeMUS{}.Marshal(v.CreatedAt, bs[n:])
	n += timeMUS{}.Marshal(v.UpdatedAt, bs[n:])
	return n
}

func (sessionMUS) Unmarshal(bs []byte) (v Session, n int, err error) {
	var m int
	if v.Id, n, err = ord.String.Unmarshal(bs); err != nil {
		return
	}
	if v.TurnCount, m, err = varint.Int.Unmarshal(bs[n:]); err != nil {
		return v, n + m, err
	}
	n += m
	var turns int
	if turns, m, err = varint.Int.Unmarshal(bs[n:]); err != nil {
		return v, n + m, err
	}
	n += m
	if err = checkLength(turns, len(bs)-n); err != nil {
		return v, n, err
	}
	if turns > 0 {
		v.History = make([]Turn, turns)
		for i := range v.History {
			if v.History[i], m, err = (turnMUS{}).Unmarshal(bs[n:]); err != nil {
				return v, n + m, err
			}
			n += m
		}
	}
	if v.LastActions, m, err = (kindsMUS{}).Unmarshal(bs[n:]); err != nil {
		return v, n + m, err
	}
	n += m
	if v.OfferedKinds, m, err = (kindsMUS{}).Unmarshal(bs[n:]); err != nil {
		return v, n + m, err
	}
	n += m
	var stage int
	if stage, m, err = varint.Int.Unmarshal(bs[n:]); err != nil {
		return v, n + m, err
	}
	v.Stage = Stage(stage)
	n += m
	if v.CelebrationSent, m, err = ord.Bool.Unmarshal(bs[n:]); err != nil {
		return v, n + m, err
	}
	n += m
	if v.CreatedAt, m, err = (timeMUS{}).Unmarshal(bs[n:]); err != nil {
		return v, n + m, err
	}
	n += m
	if v.UpdatedAt, m, err = (timeMUS{}).Unmarshal(bs[n:]); err != nil {
		return v, n + m, err
	}
	n += m
	return v, n, nil
}

func (sessionMUS) Size(v Session) int {
	size := ord.String.Size(v.Id)
	size += varint.Int.Size(v.TurnCount)
	size += varint.Int.Size(len(v.History))
	for _, turn := range v.History {
		size += turnMUS{}.Size(turn)
	}
	size += kindsMUS{}.Size(v.LastActions)
	size += kindsMUS{}.Size(v.OfferedKinds)
	size += varint.Int.Size(int(v.Stage))
	size += ord.Bool.Size(v.CelebrationSent)
	size += timeMUS{}.Size(v.CreatedAt)
	size += timeMUS{}.Size(v.UpdatedAt)
	return size
}

// CheckpointMUS serializes Checkpoints.
var CheckpointMUS = checkpointMUS{}

type checkpointMUS struct{}

func (checkpointMUS) Marshal(v Checkpoint, bs []byte) int {
	n := ord.String.Marshal(v.JobName, bs)
	n += IDMUS.Marshal(v.LastId, bs[n:])
	n += timeMUS{}.Marshal(v.UpdatedAt, bs[n:])
	return n
}

func (checkpointMUS) Unmarshal(bs []byte) (v Checkpoint, n int, err error) {
	var m int
	if v.JobName, n, err = ord.String.Unmarshal(bs); err != nil {
		return
	}
	if v.LastId, m, err = IDMUS.Unmarshal(bs[n:]); err != nil {
		return v, n + m, err
	}
	n += m
	if v.UpdatedAt, m, err = (timeMUS{}).Unmarshal(bs[n:]); err != nil {
		return v, n + m, err
	}
	n += m
	return v, n, nil
}

func (checkpointMUS) Size(v Checkpoint) int {
	return ord.String.Size(v.JobName) + IDMUS.Size(v.LastId) + timeMUS{}.Size(v.UpdatedAt)
}
