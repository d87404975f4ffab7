package formats

import (
	"bufio"
	"encoding/json"
	"io"
)

type jsonCodec struct{}

func init() { Register(jsonCodec{}, ".json") }

// Decode accepts {"items":[...]} or a bare array of items.
func (jsonCodec) Decode(r io.Reader) (BankFile, error) {
	br := bufio.NewReader(r)
	first, err := peekNonSpace(br)
	if err != nil {
		return BankFile{}, err
	}
	dec := json.NewDecoder(br)
	var bf BankFile
	if first == '[' {
		err = dec.Decode(&bf.Items)
	} else {
		err = dec.Decode(&bf)
	}
	return bf, err
}

func (jsonCodec) Encode(w io.Writer, bf BankFile) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(bf)
}

func peekNonSpace(br *bufio.Reader) (byte, error) {
	for {
		b, err := br.ReadByte()
		if err != nil {
			return 0, err
		}
		switch b {
		case ' ', '\t', '\r', '\n':
			continue
		}
		return b, br.UnreadByte()
	}
}
