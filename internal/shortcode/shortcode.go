// Package shortcode turns numeric venue ids into short, non-sequential
// share codes for public links, and resolves them back.
package shortcode

import (
	"fmt"

	hashids "github.com/speps/go-hashids/v2"
)

type Codec struct {
	h *hashids.HashID
}

func New(salt string) (*Codec, error) {
	data := hashids.NewData()
	data.Salt = salt
	data.MinLength = 6
	data.Alphabet = "abcdefghijkmnpqrstuvwxyz23456789"

	h, err := hashids.NewWithData(data)
	if err != nil {
		return nil, fmt.Errorf("init shortcode codec: %w", err)
	}
	return &Codec{h: h}, nil
}

func (c *Codec) Encode(id int64) (string, error) {
	code, err := c.h.EncodeInt64([]int64{id})
	if err != nil {
		return "", fmt.Errorf("encode shortcode: %w", err)
	}
	return code, nil
}

func (c *Codec) Decode(code string) (int64, error) {
	ids, err := c.h.DecodeInt64WithError(code)
	if err != nil {
		return 0, fmt.Errorf("decode shortcode: %w", err)
	}
	if len(ids) != 1 {
		return 0, fmt.Errorf("decode shortcode: unexpected payload")
	}
	return ids[0], nil
}
