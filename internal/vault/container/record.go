package container

import (
	"encoding/binary"
	"fmt"

	"github.com/cooky451/passchain-go/internal/vault/model"
	"github.com/cooky451/passchain-go/internal/vault/vaulterr"
)

// recordWriter appends entry records in the fixed field order the codec
// defines, truncating any string longer than maxUint16 bytes.
type recordWriter struct {
	buf []byte
}

func (w *recordWriter) writeUint16(v uint16) {
	var b [2]byte
	binary.LittleEndian.PutUint16(b[:], v)
	w.buf = append(w.buf, b[:]...)
}

func (w *recordWriter) writeUint64(v uint64) {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], v)
	w.buf = append(w.buf, b[:]...)
}

func (w *recordWriter) writeInt64(v int64) {
	w.writeUint64(uint64(v))
}

func (w *recordWriter) writeString(s string) {
	b := []byte(s)
	if len(b) > maxUint16 {
		b = b[:maxUint16]
	}
	w.writeUint16(uint16(len(b)))
	w.buf = append(w.buf, b...)
}

// writeEntry appends e's plaintext record. The caller is responsible for
// having unmasked e before calling this and re-masking afterward.
func writeEntry(w *recordWriter, e *model.Entry) error {
	if len(e.Snapshots) > maxUint16 {
		return fmt.Errorf("%w: entry %d has %d snapshots", vaulterr.ErrTooManySnapshots, e.UniqueID, len(e.Snapshots))
	}

	w.writeUint64(e.UniqueID)
	w.writeInt64(e.Timestamp)
	w.writeUint16(uint16(len(e.Snapshots)))
	for _, snap := range e.Snapshots {
		w.writeInt64(snap.Timestamp)
		w.writeString(snap.Username)
		w.writeString(snap.Password)
	}
	w.writeString(e.Name)
	w.writeString(e.Comment)
	w.writeString(e.Generator.ExtraAlphabet)
	w.writeUint16(e.Generator.PasswordLength)
	w.writeUint16(entryFlags(e))

	return nil
}

const (
	flagLetters = 1 << 0
	flagNumbers = 1 << 1
	flagSpecial = 1 << 2
	flagExtra   = 1 << 3
	flagHidden  = 1 << 4
)

func entryFlags(e *model.Entry) uint16 {
	var flags uint16
	if e.Generator.UseLetters {
		flags |= flagLetters
	}
	if e.Generator.UseNumbers {
		flags |= flagNumbers
	}
	if e.Generator.UseSpecial {
		flags |= flagSpecial
	}
	if e.Generator.UseExtra {
		flags |= flagExtra
	}
	if e.Hidden {
		flags |= flagHidden
	}
	return flags
}

// recordReader parses entry records sequentially out of a decrypted
// buffer, returning vaulterr.ErrCorruptRecord for any read past the end.
type recordReader struct {
	buf []byte
	pos int
}

func (r *recordReader) take(n int) ([]byte, error) {
	if r.pos+n > len(r.buf) {
		return nil, fmt.Errorf("%w: need %d bytes at offset %d, have %d", vaulterr.ErrCorruptRecord, n, r.pos, len(r.buf))
	}
	b := r.buf[r.pos : r.pos+n]
	r.pos += n
	return b, nil
}

func (r *recordReader) readUint16() (uint16, error) {
	b, err := r.take(2)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(b), nil
}

func (r *recordReader) readUint64() (uint64, error) {
	b, err := r.take(8)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b), nil
}

func (r *recordReader) readInt64() (int64, error) {
	v, err := r.readUint64()
	return int64(v), err
}

func (r *recordReader) readString() (string, error) {
	n, err := r.readUint16()
	if err != nil {
		return "", err
	}
	b, err := r.take(int(n))
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// readEntry parses one plaintext entry record. The caller is responsible
// for masking the returned entry's secret fields before it joins a live
// database.
func readEntry(r *recordReader) (*model.Entry, error) {
	id, err := r.readUint64()
	if err != nil {
		return nil, err
	}
	ts, err := r.readInt64()
	if err != nil {
		return nil, err
	}
	nSnapshots, err := r.readUint16()
	if err != nil {
		return nil, err
	}

	snapshots := make([]model.Snapshot, 0, nSnapshots)
	for i := uint16(0); i < nSnapshots; i++ {
		snapTS, err := r.readInt64()
		if err != nil {
			return nil, err
		}
		username, err := r.readString()
		if err != nil {
			return nil, err
		}
		password, err := r.readString()
		if err != nil {
			return nil, err
		}
		snapshots = append(snapshots, model.Snapshot{
			Timestamp: snapTS,
			Username:  username,
			Password:  password,
		})
	}

	name, err := r.readString()
	if err != nil {
		return nil, err
	}
	comment, err := r.readString()
	if err != nil {
		return nil, err
	}
	extraAlphabet, err := r.readString()
	if err != nil {
		return nil, err
	}
	passwordLength, err := r.readUint16()
	if err != nil {
		return nil, err
	}
	flags, err := r.readUint16()
	if err != nil {
		return nil, err
	}

	return &model.Entry{
		UniqueID:  id,
		Timestamp: ts,
		Name:      name,
		Comment:   comment,
		Hidden:    flags&flagHidden != 0,
		Snapshots: snapshots,
		Generator: model.GeneratorSpec{
			ExtraAlphabet:  extraAlphabet,
			PasswordLength: passwordLength,
			UseLetters:     flags&flagLetters != 0,
			UseNumbers:     flags&flagNumbers != 0,
			UseSpecial:     flags&flagSpecial != 0,
			UseExtra:       flags&flagExtra != 0,
		},
	}, nil
}
