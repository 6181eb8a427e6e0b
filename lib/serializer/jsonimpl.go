package serializer

import (
	"encoding/json"

	"github.com/emberlab/gasvault/lib/dataset"
)

// NewJSONSerializer creates a new serializer using json encoding.
// Note that JSON cannot represent NaN, so datasets with NaN-padded columns
// must use the gob serializer.
func NewJSONSerializer() IDatasetSerializer {
	return &jsonSerializerImpl{}
}

// jsonSerializerImpl implements the IDatasetSerializer interface using json encoding
type jsonSerializerImpl struct {
}

// --------------------------------------------------------------------------
// Interface Methods (docu see serializer.IDatasetSerializer)
// --------------------------------------------------------------------------

func (j jsonSerializerImpl) Serialize(ds *dataset.Dataset) ([]byte, error) {
	return json.Marshal(ds)
}

func (j jsonSerializerImpl) Deserialize(b []byte, ds *dataset.Dataset) error {
	return json.Unmarshal(b, ds)
}
