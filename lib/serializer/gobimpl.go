package serializer

import (
	"bytes"
	"encoding/gob"

	"github.com/emberlab/gasvault/lib/dataset"
)

// NewGOBSerializer creates a new serializer using Go's binary gob format.
// Gob represents NaN exactly, which makes it the default for stored blocks.
func NewGOBSerializer() IDatasetSerializer {
	return &gobSerializerImpl{}
}

// gobSerializerImpl implements the IDatasetSerializer interface using gob encoding
type gobSerializerImpl struct {
}

// --------------------------------------------------------------------------
// Interface Methods (docu see serializer.IDatasetSerializer)
// --------------------------------------------------------------------------

func (g gobSerializerImpl) Serialize(ds *dataset.Dataset) ([]byte, error) {
	var buf bytes.Buffer
	enc := gob.NewEncoder(&buf)
	if err := enc.Encode(ds); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (g gobSerializerImpl) Deserialize(b []byte, ds *dataset.Dataset) error {
	buf := bytes.NewBuffer(b)
	dec := gob.NewDecoder(buf)
	return dec.Decode(ds)
}
