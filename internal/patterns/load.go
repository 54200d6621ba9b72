package patterns

import (
	"bytes"
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
)

// File is the on-disk shape of a pattern library.
type File struct {
	Families []FamilyDecl `toml:"family"`
}

// Parse decodes a TOML pattern library and compiles it.
func Parse(data []byte) (*Library, error) {
	var f File
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&f); err != nil {
		return nil, &ConfigError{Token: -1, Reason: "decode toml", Err: err}
	}
	return Compile(f.Families)
}

// LoadFile reads and compiles the pattern library at path.
func LoadFile(path string) (*Library, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &ConfigError{Token: -1, Reason: fmt.Sprintf("read %s", path), Err: err}
	}
	return Parse(data)
}

// Encode renders decls as TOML, e.g. to seed a custom library file.
func Encode(decls []FamilyDecl) ([]byte, error) {
	var buf bytes.Buffer
	enc := toml.NewEncoder(&buf)
	if err := enc.Encode(File{Families: decls}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
