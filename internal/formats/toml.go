package formats

import (
	"io"

	"github.com/pelletier/go-toml/v2"
)

// TOML ids must be strings; integer ids are only accepted in JSON.
type tomlCodec struct{}

func init() { Register(tomlCodec{}, ".toml") }

func (tomlCodec) Decode(r io.Reader) (BankFile, error) {
	var bf BankFile
	if err := toml.NewDecoder(r).Decode(&bf); err != nil {
		return BankFile{}, err
	}
	return bf, nil
}

func (tomlCodec) Encode(w io.Writer, bf BankFile) error {
	return toml.NewEncoder(w).Encode(bf)
}
