package treedb

import (
	"encoding/base64"
	"sync"

	"github.com/klauspost/compress/zstd"
)

// Transform is an invertible byte-to-byte step applied to the serialized
// tree before it is stored and after it is loaded.
type Transform interface {
	Encode(data []byte) ([]byte, error)
	Decode(data []byte) ([]byte, error)
}

// Base64Transform stores the tree as standard base64 text.
type Base64Transform struct{}

func (Base64Transform) Encode(data []byte) ([]byte, error) {
	return base64.StdEncoding.AppendEncode(nil, data), nil
}

func (Base64Transform) Decode(data []byte) ([]byte, error) {
	return base64.StdEncoding.AppendDecode(nil, data)
}

// ZstdTransform compresses the tree with zstd. The zero value is ready to use.
type ZstdTransform struct {
	Level zstd.EncoderLevel

	once sync.Once
	enc  *zstd.Encoder
	dec  *zstd.Decoder
	err  error
}

func (z *ZstdTransform) init() {
	z.once.Do(func() {
		level := z.Level
		if level == 0 {
			level = zstd.SpeedDefault
		}
		z.enc, z.err = zstd.NewWriter(nil, zstd.WithEncoderLevel(level), zstd.WithEncoderConcurrency(1))
		if z.err != nil {
			return
		}
		z.dec, z.err = zstd.NewReader(nil, zstd.WithDecoderConcurrency(1))
	})
}

func (z *ZstdTransform) Encode(data []byte) ([]byte, error) {
	z.init()
	if z.err != nil {
		return nil, z.err
	}
	return z.enc.EncodeAll(data, nil), nil
}

func (z *ZstdTransform) Decode(data []byte) ([]byte, error) {
	z.init()
	if z.err != nil {
		return nil, z.err
	}
	return z.dec.DecodeAll(data, nil)
}
