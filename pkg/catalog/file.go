package catalog

import (
	"context"
	"os"

	"github.com/BurntSushi/toml"

	"github.com/cod1ng-earth/splicenft/pkg/errors"
	"github.com/cod1ng-earth/splicenft/pkg/seed"
	"github.com/cod1ng-earth/splicenft/pkg/style"
)

// FileSource reads style records from a TOML file:
//
//	collection = "0x231e5BA16e2C9BE8918cf67d477052f3F6C35036"
//
//	[[styles]]
//	id = 1
//	code = "splice:stripes"
//	name = "Stripes"
//	palette = ["#000000", "#ffffff"]
//
// A record without its own collection inherits the top-level one. The file
// is re-read on every fetch.
type FileSource struct {
	Path string
}

type styleFile struct {
	Collection seed.Address   `toml:"collection"`
	Styles     []style.Record `toml:"styles"`
}

func (f FileSource) Styles(ctx context.Context) ([]style.Record, error) {
	data, err := os.ReadFile(f.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeNotFound, err, "style file %s", f.Path)
		}
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "read style file %s", f.Path)
	}
	return ParseFile(data)
}

// ParseFile decodes the TOML style file format.
func ParseFile(data []byte) ([]style.Record, error) {
	var sf styleFile
	if err := toml.Unmarshal(data, &sf); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "parse style file")
	}
	for i := range sf.Styles {
		if sf.Styles[i].Collection.IsZero() {
			sf.Styles[i].Collection = sf.Collection
		}
	}
	return sf.Styles, nil
}
