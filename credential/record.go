package credential

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"time"
)

const recordVersionV1 = 1

// Fixed offsets into an encoded record, 0-based. Lua scripts rely on these.
const (
	offsetExpiresAt = 10
	offsetHashLen   = 18
)

// Record is one stored credential.
type Record struct {
	SubjectKey string
	Purpose    Purpose
	Hash       string
	CreatedAt  time.Time
	ExpiresAt  time.Time
}

// LiveAt reports whether r is still usable at now.
func (r *Record) LiveAt(now time.Time) bool {
	return now.Before(r.ExpiresAt)
}

// Layout: version(1) purpose(1) createdAt ms(8) expiresAt ms(8) hashLen(1)
// hash(hashLen) subjectLen(2) subject.
func encodeRecord(r *Record) ([]byte, error) {
	if len(r.Hash) == 0 || len(r.Hash) > 255 {
		return nil, errors.New("credential hash length out of range")
	}
	if len(r.SubjectKey) > 65535 {
		return nil, errors.New("credential subject key too long")
	}

	var buf bytes.Buffer
	buf.WriteByte(recordVersionV1)
	buf.WriteByte(byte(r.Purpose))

	if err := binary.Write(&buf, binary.BigEndian, r.CreatedAt.UnixMilli()); err != nil {
		return nil, err
	}
	if err := binary.Write(&buf, binary.BigEndian, r.ExpiresAt.UnixMilli()); err != nil {
		return nil, err
	}

	buf.WriteByte(byte(len(r.Hash)))
	buf.WriteString(r.Hash)

	if err := binary.Write(&buf, binary.BigEndian, uint16(len(r.SubjectKey))); err != nil {
		return nil, err
	}
	buf.WriteString(r.SubjectKey)

	return buf.Bytes(), nil
}

func decodeRecord(data []byte) (*Record, error) {
	reader := bytes.NewReader(data)

	version, err := reader.ReadByte()
	if err != nil {
		return nil, err
	}
	if version != recordVersionV1 {
		return nil, errors.New("invalid credential record version")
	}

	purpose, err := reader.ReadByte()
	if err != nil {
		return nil, err
	}

	var createdAt, expiresAt int64
	if err := binary.Read(reader, binary.BigEndian, &createdAt); err != nil {
		return nil, err
	}
	if err := binary.Read(reader, binary.BigEndian, &expiresAt); err != nil {
		return nil, err
	}

	hashLen, err := reader.ReadByte()
	if err != nil {
		return nil, err
	}
	hash := make([]byte, hashLen)
	if _, err := io.ReadFull(reader, hash); err != nil {
		return nil, err
	}

	var subjectLen uint16
	if err := binary.Read(reader, binary.BigEndian, &subjectLen); err != nil {
		return nil, err
	}
	subject := make([]byte, subjectLen)
	if _, err := io.ReadFull(reader, subject); err != nil {
		return nil, err
	}

	return &Record{
		SubjectKey: string(subject),
		Purpose:    Purpose(purpose),
		Hash:       string(hash),
		CreatedAt:  time.UnixMilli(createdAt).UTC(),
		ExpiresAt:  time.UnixMilli(expiresAt).UTC(),
	}, nil
}
