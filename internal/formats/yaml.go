package formats

import (
	"io"

	"gopkg.in/yaml.v3"
)

type yamlCodec struct{}

func init() { Register(yamlCodec{}, ".yaml", ".yml") }

func (yamlCodec) Decode(r io.Reader) (BankFile, error) {
	var bf BankFile
	if err := yaml.NewDecoder(r).Decode(&bf); err != nil && err != io.EOF {
		return BankFile{}, err
	}
	return bf, nil
}

func (yamlCodec) Encode(w io.Writer, bf BankFile) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(bf); err != nil {
		return err
	}
	return enc.Close()
}
